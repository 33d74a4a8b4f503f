package server

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.health)

	api.POST("/users/send-otp", s.sendOTP)
	api.POST("/users/verify-otp", s.verifyOTP)
	api.POST("/users/register", s.register)

	api.POST("/login", s.login)
	api.POST("/logout", s.logout)

	api.POST("/forgot-password", s.forgotPassword)
	api.GET("/verify-reset-token", s.verifyResetToken)
	api.POST("/reset-password", s.resetPassword)

	protected := api.Group("", s.requireSession())
	protected.GET("/me", s.me)

	admin := api.Group("/admin", s.requireSession(), s.requireAdmin())
	admin.PATCH("/users/:id/active", s.setUserActive)
}

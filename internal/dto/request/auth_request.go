package request

// RegisterRequest 邮箱注册请求
// 使用位置:
//   - internal/handler/auth_handler.go: Register
//   - internal/service/auth/service.go: Register
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest 邮箱密码登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: Login
//   - internal/service/auth/service.go: Login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

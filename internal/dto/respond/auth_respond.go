package respond

// LoginRespond 登录/注册响应
// 使用位置:
//   - internal/service/auth/service.go: Register, Login
type LoginRespond struct {
	Uuid        string `json:"uuid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Avatar      string `json:"avatar"`
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
}

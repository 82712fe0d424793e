package dto

type CreateSessionRequest struct {
	SessionName string `json:"session_name"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// Discord OAuth 授权码换取访问令牌的中继请求
// 客户端拿不到 client secret，必须经由服务端完成交换
type TokenExchangeRequest struct {
	Code string `json:"code"`
}

type TokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
}

package http

import (
	"guess-who-said-it-be/internal/service/dto"
	"guess-who-said-it-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// ExchangeToken 用客户端送来的授权码向 Discord 换取访问令牌
// client secret 只存在于服务端，不会下发
func ExchangeToken(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.TokenExchangeRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		if req.Code == "" {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "缺少授权码",
			})
			return
		}

		conf := &oauth2.Config{
			ClientID:     appState.Cfg.Discord.ClientID,
			ClientSecret: appState.Cfg.Discord.ClientSecret,
			Endpoint:     discordEndpoint,
		}

		token, err := conf.Exchange(ctx.Request().Context(), req.Code)
		if err != nil {
			zap.L().Error("令牌交换失败", zap.Error(err))

			ctx.StatusCode(iris.StatusBadGateway)
			ctx.JSON(iris.Map{
				"error": "令牌交换失败",
			})
			return
		}

		ctx.JSON(dto.TokenExchangeResponse{
			AccessToken: token.AccessToken,
		})
	}
}

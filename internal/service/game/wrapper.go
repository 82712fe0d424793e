package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME     = "JoinGame"
	REQ_EXIT_GAME     = "ExitGame"
	REQ_START_GAME    = "StartGame"
	REQ_SELECT        = "SelectCandidate"
	REQ_LOCK_IN       = "LockIn"
	REQ_CONTINUE      = "Continue"
	REQ_PLAY_AGAIN    = "PlayAgain"
	REQ_TICK          = "Tick"
	REQ_ROSTER_UPDATE = "RosterUpdate"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 服务端内部构造的请求直接携带原生数据，不经过 JSON
	NativeData any `json:"-"`
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	if wrapper.NativeData != nil {
		if req, ok := wrapper.NativeData.(*T); ok {
			return req
		}

		zap.L().Error(
			"Failed to unwrap native request",
			zap.String("request_type", reqType),
			zap.Any("wrapper", wrapper),
		)

		return nil
	}

	var req T

	err := json.Unmarshal(wrapper.Data, &req)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &req
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	return tryUnwrap[JoinGameRequest](wrapper, REQ_JOIN_GAME)
}

func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	return tryUnwrap[ExitGameRequest](wrapper, REQ_EXIT_GAME)
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	return tryUnwrap[StartGameRequest](wrapper, REQ_START_GAME)
}

func TryUnwrapSelectCandidateRequest(wrapper RequestWrapper) *SelectCandidateRequest {
	return tryUnwrap[SelectCandidateRequest](wrapper, REQ_SELECT)
}

func TryUnwrapLockInRequest(wrapper RequestWrapper) *LockInRequest {
	return tryUnwrap[LockInRequest](wrapper, REQ_LOCK_IN)
}

func TryUnwrapContinueRequest(wrapper RequestWrapper) *ContinueRequest {
	return tryUnwrap[ContinueRequest](wrapper, REQ_CONTINUE)
}

func TryUnwrapPlayAgainRequest(wrapper RequestWrapper) *PlayAgainRequest {
	return tryUnwrap[PlayAgainRequest](wrapper, REQ_PLAY_AGAIN)
}

func TryUnwrapTickRequest(wrapper RequestWrapper) *TickRequest {
	return tryUnwrap[TickRequest](wrapper, REQ_TICK)
}

func TryUnwrapRosterUpdateRequest(wrapper RequestWrapper) *RosterUpdateRequest {
	return tryUnwrap[RosterUpdateRequest](wrapper, REQ_ROSTER_UPDATE)
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME  = "JoinGame"
	RESP_EXIT_GAME  = "ExitGame"
	RESP_GAME_STATE = "GameState"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}

package network

const (
	MsgTypeHeartbeat = 1

	MsgTypeJoinQueue   = 101
	MsgTypeLeaveQueue  = 102
	MsgTypeQueueStatus = 103
	MsgTypeQueueEvent  = 104

	MsgTypeJoinGame  = 201
	MsgTypeLeaveGame = 202
	MsgTypeMove      = 203

	MsgTypeGameState    = 301
	MsgTypeMatchFound   = 302
	MsgTypeGameMove     = 303
	MsgTypeGameEnd      = 304
	MsgTypePlayerJoined = 305
	MsgTypePlayerLeft   = 306

	MsgTypeError = 401
)

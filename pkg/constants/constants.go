package constants

const (
	CHANNEL_SIZE          = 100     // 每个连接的出站队列默认长度
	MAX_MESSAGE_SIZE      = 1 << 16 // 单个 WebSocket 帧最大字节数
	PONG_WAIT_SECONDS     = 60      // 等待 pong 的超时时间（秒）
	WRITE_WAIT_SECONDS    = 10      // 单次写超时（秒）
	PRESENCE_TTL_MINUTES  = 30      // redis 在线状态镜像过期时间（分钟）
	DEFAULT_PAGE_LIMIT    = 20      // 消息分页默认条数
	MAX_PAGE_LIMIT        = 100     // 消息分页最大条数
	MIN_GROUP_PARTICIPANT = 3       // 群聊最少成员数（含创建者）
)

// redis key
const (
	PRESENCE_KEY_PREFIX = "presence_"
	ONLINE_USERS_KEY    = "online_users"
)

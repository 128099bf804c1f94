package constants

import "time"

var CacheTTL = struct {
	EventSnapshot time.Duration
	LiverMap      time.Duration
	UserState     time.Duration
}{
	EventSnapshot: 30 * time.Minute,    // 30분 - 마지막 스케줄 스냅샷
	LiverMap:      24 * time.Hour,      // 1일 - 니지산지 라이버 목록
	UserState:     90 * 24 * time.Hour, // 90일 - 북마크/필터
}

var CacheKeys = struct {
	EventSnapshot  string
	LiverMap       string
	BookmarkPrefix string
	FilterPrefix   string
}{
	EventSnapshot:  "liver:events:snapshot",
	LiverMap:       "liver:nijisanji:livers",
	BookmarkPrefix: "liver:bookmarks:",
	FilterPrefix:   "liver:talent_filter:",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,                // 3회 연속 실패 시 OPEN
	ResetTimeout:     30 * time.Second, // 재시도 대기 시간
}

var APIConfig = struct {
	HololiveScheduleAPI  string
	HololiveScheduleHTML string
	NijisanjiAPIBase     string
	RequestTimeout       time.Duration
	UserAgent            string
}{
	HololiveScheduleAPI:  "https://schedule.hololive.tv/api/list/7",
	HololiveScheduleHTML: "https://schedule.hololive.tv/lives/all",
	NijisanjiAPIBase:     "https://nijiapi-proxy.vercel.app/api",
	RequestTimeout:       10 * time.Second,
	UserAgent:            "liver-streams-go/1.0",
}

var NewArrivalConfig = struct {
	KeepTime time.Duration
}{
	KeepTime: 2 * time.Hour,
}

var RefreshConfig = struct {
	DefaultInterval time.Duration
	MinInterval     time.Duration
}{
	DefaultInterval: 5 * time.Minute,
	MinInterval:     30 * time.Second,
}

// Titles substituted by the sources themselves.
var Placeholder = struct {
	OtherChannelTitle string
	UnknownTalent     string
	DefaultIcon       string
}{
	OtherChannelTitle: "(他チャンネルでの配信)",
	UnknownTalent:     "Unknown (%s)",
	DefaultIcon:       "/default.svg",
}

var StringLimits = struct {
	EventTitle int
}{
	EventTitle: 60,
}

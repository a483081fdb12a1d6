package model

import "time"

// CalendarEvent はGoogleカレンダー上の予定を表す。
// Googleカレンダーの保持するデータの薄い射影であり、ローカルには永続化しない。
type CalendarEvent struct {
	ID       string
	Summary  string
	Start    time.Time
	End      time.Time
	HTMLLink string
}

package models

import "time"

// Category is the kind of flower a thought blooms into.
type Category string

const (
	CategoryDefault  Category = "default"
	CategoryHappy    Category = "happy"
	CategoryPeaceful Category = "peaceful"
	CategoryHopeful  Category = "hopeful"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryDefault, CategoryHappy, CategoryPeaceful, CategoryHopeful}

// TimestampLayout is the ISO-8601 form used for CreatedAt, identical to what
// a JavaScript client produces with Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and any RFC 3339 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Thought is a single planted entry in a user's garden.
type Thought struct {
	ID        string   `bson:"id" firestore:"id" json:"id"`
	Text      string   `bson:"text" firestore:"text" json:"text"`
	CreatedAt string   `bson:"createdAt" firestore:"createdAt" json:"createdAt"`
	Category  Category `bson:"category" firestore:"category" json:"category"`
}

// UserRecord is the per-user document that embeds the thought collection.
type UserRecord struct {
	ID       string    `bson:"_id,omitempty" firestore:"-" json:"id"`
	Thoughts []Thought `bson:"thoughts" firestore:"thoughts" json:"thoughts"`
	Version  int64     `bson:"version" firestore:"-" json:"-"`
}

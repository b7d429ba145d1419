package model

// Mistake is one entry in a player's mistake book.
type Mistake struct {
	Q     string  `json:"q" bson:"q"`
	A     float64 `json:"a" bson:"a"`
	Count int     `json:"count" bson:"count"`
}

// UserProfile is the durable per-name record behind the battle engine:
// leveling, currency, cosmetics and the daily login streak.
type UserProfile struct {
	Name            string             `json:"name" bson:"name"`
	Level           int                `json:"level" bson:"level"`
	Exp             int                `json:"exp" bson:"exp"`
	Coins           int                `json:"coins" bson:"coins"`
	PBs             map[string]float64 `json:"pbs" bson:"pbs"`
	Mistakes        []Mistake          `json:"mistakes" bson:"mistakes"`
	UnlockedAvatars []string           `json:"unlockedAvatars" bson:"unlockedAvatars"`
	CurrentAvatar   string             `json:"currentAvatar" bson:"currentAvatar"`
	UnlockedThemes  []string           `json:"unlockedThemes" bson:"unlockedThemes"`
	CurrentTheme    string             `json:"currentTheme" bson:"currentTheme"`
	Streak          int                `json:"streak" bson:"streak"`
	LastLogin       string             `json:"lastLogin" bson:"lastLogin"` // YYYY-MM-DD
}

// GameResult is the payload a client reports when a solo or battle run ends.
type GameResult struct {
	Exp         int             `json:"exp"`
	CoinsGained int             `json:"coinsGained"`
	Time        float64         `json:"time"`
	Accuracy    int             `json:"accuracy"`
	ConfigKey   string          `json:"configKey"`
	Mistakes    []ResultMistake `json:"mistakes"`
	CorrectOnes []string        `json:"correctOnes"`
}

// ResultMistake is a wrong answer as reported inside a GameResult.
type ResultMistake struct {
	Q          string  `json:"q"`
	CorrectAns float64 `json:"correctAns"`
	MyAns      string  `json:"myAns"`
}

// SaveResultResponse reports the profile after settlement plus any level-up.
type SaveResultResponse struct {
	User       *UserProfile `json:"user"`
	LeveledUp  bool         `json:"leveledUp"`
	OldLevel   int          `json:"oldLevel"`
	NewLevel   int          `json:"newLevel"`
	NewUnlocks []string     `json:"newUnlocks"`
	Exp        int          `json:"exp"`
	Coins      int          `json:"coins"`
}

// LeaderboardEntry is one row of the global exp leaderboard.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Exp    int    `json:"exp"`
	Level  int    `json:"level"`
	Avatar string `json:"avatar"`
}

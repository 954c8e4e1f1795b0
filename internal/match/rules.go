package match

import "time"

// Rules are the tunable constants of a game. Loaded from the environment with
// the RULES_ prefix.
type Rules struct {
	StartingHealth    int           `env:"STARTING_HEALTH" envDefault:"100"`
	StartingGold      int           `env:"STARTING_GOLD" envDefault:"10"`
	StartingLevel     int           `env:"STARTING_LEVEL" envDefault:"3"`
	MaxLevel          int           `env:"MAX_LEVEL" envDefault:"9"`
	LevelEvery        int           `env:"LEVEL_EVERY" envDefault:"2"`
	BenchSize         int           `env:"BENCH_SIZE" envDefault:"8"`
	HomeRows          int           `env:"HOME_ROWS" envDefault:"4"`
	HomeCols          int           `env:"HOME_COLS" envDefault:"7"`
	ArenaRows         int           `env:"ARENA_ROWS" envDefault:"8"`
	ArenaCols         int           `env:"ARENA_COLS" envDefault:"7"`
	PlacementDuration time.Duration `env:"PLACEMENT_DURATION" envDefault:"30s"`
	ResultsDelay      time.Duration `env:"RESULTS_DELAY" envDefault:"3s"`
	BattleTimeout     time.Duration `env:"BATTLE_TIMEOUT" envDefault:"60s"`
	WinGold           int           `env:"WIN_GOLD" envDefault:"6"`
	LossGold          int           `env:"LOSS_GOLD" envDefault:"4"`
	MinPlayers        int           `env:"MIN_PLAYERS" envDefault:"2"`
	MaxPlayers        int           `env:"MAX_PLAYERS" envDefault:"8"`
	MantraRadius      float64       `env:"MANTRA_RADIUS" envDefault:"2.5"`
}

func DefaultRules() Rules {
	return Rules{
		StartingHealth:    100,
		StartingGold:      10,
		StartingLevel:     3,
		MaxLevel:          9,
		LevelEvery:        2,
		BenchSize:         8,
		HomeRows:          4,
		HomeCols:          7,
		ArenaRows:         8,
		ArenaCols:         7,
		PlacementDuration: 30 * time.Second,
		ResultsDelay:      3 * time.Second,
		BattleTimeout:     60 * time.Second,
		WinGold:           6,
		LossGold:          4,
		MinPlayers:        2,
		MaxPlayers:        8,
		MantraRadius:      2.5,
	}
}

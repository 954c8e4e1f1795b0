package types

// Client -> Server
// Connect: GET /ws?code=<game code>&player=<player id>&name=<display name>
//
// join_game:
//   name: string
//
// start_game: {}
//
// buy:
//   hero_id: string
//
// sell:
//   unit_id: string
//
// place:
//   unit_id: string
//   x: number   // column on the home board
//   y: number   // row on the home board
//
// withdraw:
//   unit_id: string
//
// move:
//   unit_id: string
//   x: number
//   y: number

// Server -> Client
// state_snapshot:
//   version: number
//   state: Snapshot (see snapshot.go)
//   events: Event[]  // what changed since the previous version
//
// error:
//   version: number
//   error: string    // sent to the requesting client only
//
// Event:
//   type: "PhaseChanged" | "RoundStarted" | "CountdownStarted" | "HealthChanged" | "UnitDied"
//       | "BuffStacksChanged" | "TraitActivated" | "TraitUpgraded" | "TraitDowngraded"
//       | "TraitDeactivated" | "SynergyActivated" | "UnitSpawned" | "UnitDespawned" | "UnitFused"
//       | "UnitPlaced" | "UnitWithdrawn" | "UnitUnplaced" | "GoldChanged" | "BattleStarted"
//       | "BattleEnded" | "PlayerDamaged" | "PlayerEliminated" | "VictoryDeclared"
//   match_id, player_id, unit_id, source_id, trait_id, phase, buff: string (optional)
//   amount: number, value: number, tile: {x, y} (optional)

package types

// Snapshot:
//   code: string
//   phase: "waiting" | "placement" | "battle" | "results"
//   round: { number: number, matchups: Matchup[], idle: string[] }
//   countdown: number            // seconds left in placement
//   players: Player[]
//   battles: Battle[]            // only during battle
//   winner: string               // set once one player remains
//
// Matchup: { id: string, team_a: string[], team_b: string[] }
//
// Player:
//   id, name: string
//   health, gold, level: number
//   eliminated, spectator: boolean
//   board: Unit[]                // deployed on the home board
//   bench: Unit[]
//   synergy: { counts: {[trait]: number}, active: {[trait]: {trait_id, count, tier, ability}}, advanced: [] }
//
// Battle: { match_id: string, team_a: string[], team_b: string[], done: boolean, elapsed: number, units: Unit[] }
//
// Unit:
//   id, owner_id, hero_id: string
//   star: 1 | 2 | 3
//   health, max_health, attack: number
//   tile: {x, y}, pos: {x, y}
//   alive: boolean
//   state: "idle" | "moving" | "attacking" | "dead"
//   buffs: ("poison" | "bleed" | "shield" | "lifesteal_aura" | "mantra_aura")[]
//   poison_stacks: number

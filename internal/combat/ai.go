package combat

import (
	"math"
	"time"
)

const rangeEpsilon = 1e-9

// AI drives the idle, moving and attacking states of units on a field.
type AI struct {
	field     *Field
	abilities *Dispatcher
}

func NewAI(f *Field, d *Dispatcher) *AI {
	return &AI{field: f, abilities: d}
}

// Tick advances u by dt. Dead units are left alone.
func (a *AI) Tick(u *Unit, dt time.Duration) {
	if u == nil {
		return
	}
	if !u.Alive {
		u.state = StateDead
		return
	}
	if u.cooldown > 0 {
		u.cooldown = max(u.cooldown-dt, 0)
	}

	if u.state == StateIdle {
		a.acquire(u)
	}
	switch u.state {
	case StateMoving:
		a.move(u, dt)
	case StateAttacking:
		a.attack(u, dt)
	}
}

func (a *AI) acquire(u *Unit) {
	t := a.field.Nearest(u)
	if t == nil {
		return
	}
	u.targetID = t.ID
	if inRange(u, t) {
		u.state = StateAttacking
	} else {
		u.state = StateMoving
	}
}

// target returns u's live target or drops u back to idle.
func (a *AI) target(u *Unit) *Unit {
	t := a.field.Unit(u.targetID)
	if t == nil || !t.Alive {
		u.state = StateIdle
		u.targetID = ""
		u.swinging = false
		u.windup = 0
		return nil
	}
	return t
}

func (a *AI) move(u *Unit, dt time.Duration) {
	t := a.target(u)
	if t == nil {
		return
	}
	dir := t.Pos.Sub(u.Pos)
	dist := dir.Len()
	u.Yaw = math.Atan2(dir.Y, dir.X)
	gap := dist - u.Hero.Stats.AttackRange
	if gap <= rangeEpsilon {
		u.state = StateAttacking
		return
	}
	travel := math.Min(u.Hero.Stats.MoveSpeed*dt.Seconds(), gap)
	if travel > 0 {
		u.Pos = u.Pos.Add(dir.Scale(travel / dist))
	}
	if gap-travel <= rangeEpsilon {
		u.state = StateAttacking
	}
}

func (a *AI) attack(u *Unit, dt time.Duration) {
	t := a.target(u)
	if t == nil {
		return
	}
	if !inRange(u, t) {
		u.swinging = false
		u.windup = 0
		u.state = StateMoving
		return
	}
	dir := t.Pos.Sub(u.Pos)
	u.Yaw = math.Atan2(dir.Y, dir.X)

	if u.swinging {
		u.windup -= dt
		if u.windup <= 0 {
			u.swinging = false
			a.strike(u, t)
		}
		return
	}
	if u.cooldown > 0 || u.Hero.Stats.AttackSpeed <= 0 {
		return
	}
	u.cooldown = u.Hero.Stats.AttackCooldown()
	u.windup = u.Hero.Stats.Telegraph()
	if u.windup <= 0 {
		a.strike(u, t)
		return
	}
	u.swinging = true
}

// strike lands a basic attack: damage, then lifesteal, then on-attack abilities.
func (a *AI) strike(u, t *Unit) {
	dealt := a.field.Damage(t, Hit{Source: u, Amount: u.Attack(), Kind: DamageAttack})
	if ls := u.LifestealPct(); ls > 0 && dealt > 0 {
		a.field.Heal(u, dealt*ls)
	}
	if a.abilities != nil {
		a.abilities.OnAttack(u, t)
	}
}

func inRange(u, t *Unit) bool {
	return u.Pos.Dist(t.Pos) <= u.Hero.Stats.AttackRange+rangeEpsilon
}

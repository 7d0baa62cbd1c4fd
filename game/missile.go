// Package game implements the shoot-and-scroll demo objects that exercise
// the active-object runtime: today that is the Missile, a three-state active
// driven by the kernel's time tick and collaborating with a tunnel renderer
// and a ship by name.
package game

import "github.com/Archontes/aox"

// Application signals. The missile fires on SigMissileFire, the tunnel
// reports wall collisions with SigHitWall, and a destroyed mine sends
// SigDestroyedMine carrying the score. Image signals go to the tunnel for
// rendering.
const (
	SigMissileFire aox.Signal = aox.SigUser + iota
	SigHitWall
	SigDestroyedMine
	SigMissileImg
	SigExplosionImg
)

// Playfield geometry and motion, in pixels per tick.
const (
	TunnelWidth     = 128
	MissileSpeedX   = 4
	ScrollSpeedX    = 1
	ExplosionFrames = 15
)

// Bitmap identifiers carried in image events. The renderer owns the actual
// pixel data; the missile only selects which frame to draw.
const (
	BmpMissile = iota
	BmpExplosion0
	BmpExplosion1
	BmpExplosion2
	BmpExplosion3
)

// ObjectPos is the payload of SigMissileFire: where the shot starts.
type ObjectPos struct {
	X, Y int
}

// ObjectImage is the payload of the image signals: where to draw which
// bitmap this frame.
type ObjectImage struct {
	X, Y int
	Bmp  int
}

// Collaborator names the missile resolves from the kernel registry at start.
const (
	MissileName = "missile"
	TunnelName  = "tunnel"
	ShipName    = "ship"
)

// Missile is the armed/flying/exploding active object. Exactly one missile
// exists; firing while one is in flight is silently ignored, which is the
// armed/flying split doing its job. All fields are touched only from the
// missile's own dispatches, so none of them need locks.
type Missile struct {
	kernel *aox.Kernel
	active *aox.Active
	tunnel *aox.Active
	ship   *aox.Active

	x, y   int
	expCtr int
}

// NewMissile builds the missile's state machine and registers it on k under
// MissileName. The start hook subscribes to the kernel's time tick and
// resolves the tunnel and ship collaborators; a missing collaborator just
// mutes the corresponding output.
func NewMissile(k *aox.Kernel, prio uint8, opts ...aox.ActiveOption) (*Missile, error) {
	ms := &Missile{kernel: k}

	m, err := aox.NewMachine(MissileName, "armed", []aox.State{
		{ID: "armed", Handler: ms.armed},
		{ID: "flying", Handler: ms.flying},
		{ID: "exploding", Entry: ms.enterExploding, Handler: ms.exploding},
	})
	if err != nil {
		return nil, err
	}

	opts = append(opts, aox.WithStartHook(func(a *aox.Active) {
		a.Subscribe(aox.SigTimeTick)
		ms.tunnel, _ = k.Active(TunnelName)
		ms.ship, _ = k.Active(ShipName)
	}))
	a, err := k.AddActive(MissileName, prio, m, opts...)
	if err != nil {
		return nil, err
	}
	ms.active = a
	return ms, nil
}

// Active returns the missile's registered active object.
func (ms *Missile) Active() *aox.Active { return ms.active }

// Position returns the missile's current playfield coordinates.
func (ms *Missile) Position() (x, y int) { return ms.x, ms.y }

// RegisterNames adds the game's signal names to a trace dictionary.
func RegisterNames(d *aox.Dictionary) {
	d.RegisterSignal(SigMissileFire, "MISSILE_FIRE")
	d.RegisterSignal(SigHitWall, "HIT_WALL")
	d.RegisterSignal(SigDestroyedMine, "DESTROYED_MINE")
	d.RegisterSignal(SigMissileImg, "MISSILE_IMG")
	d.RegisterSignal(SigExplosionImg, "EXPLOSION_IMG")
}

func (ms *Missile) armed(e *aox.Event) aox.Disposition {
	if e.Sig == SigMissileFire {
		if pos, ok := e.Data.(ObjectPos); ok {
			ms.x, ms.y = pos.X, pos.Y
			return aox.Tran("flying")
		}
	}
	return aox.Pass()
}

func (ms *Missile) flying(e *aox.Event) aox.Disposition {
	switch e.Sig {
	case aox.SigTimeTick:
		if ms.x+MissileSpeedX < TunnelWidth {
			ms.x += MissileSpeedX
			ms.draw(SigMissileImg, ms.x, ms.y, BmpMissile)
			return aox.Handled()
		}
		// Flew off the right edge without hitting anything.
		return aox.Tran("armed")
	case SigHitWall:
		return aox.Tran("exploding")
	case SigDestroyedMine:
		// The mine's score rides the same event instance on to the ship.
		if ms.ship != nil {
			e.Retain()
			_ = ms.kernel.Post(ms.ship, e, MissileName)
		}
		return aox.Tran("armed")
	}
	return aox.Pass()
}

func (ms *Missile) enterExploding() {
	ms.expCtr = 0
}

func (ms *Missile) exploding(e *aox.Event) aox.Disposition {
	if e.Sig == aox.SigTimeTick {
		if ms.x >= ScrollSpeedX && ms.expCtr < ExplosionFrames {
			ms.expCtr++
			ms.x -= ScrollSpeedX // the explosion scrolls with the tunnel
			// The explosion bitmap is larger than the missile, so it draws
			// offset from the impact point.
			ms.draw(SigExplosionImg, ms.x+3, ms.y-4, BmpExplosion0+(ms.expCtr>>2))
			return aox.Handled()
		}
		return aox.Tran("armed")
	}
	return aox.Pass()
}

// draw posts one image frame to the tunnel. Under pool pressure the frame is
// simply skipped: a missing image for one tick is invisible, a stalled
// missile is not.
func (ms *Missile) draw(sig aox.Signal, x, y, bmp int) {
	if ms.tunnel == nil {
		return
	}
	e, err := ms.kernel.Allocate(sig, ObjectImage{X: x, Y: y, Bmp: bmp})
	if err != nil {
		return
	}
	_ = ms.kernel.Post(ms.tunnel, e, MissileName)
}

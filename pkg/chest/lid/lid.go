package lid

// Step is how far the lid moves per tick.
const Step float32 = 0.1

// closeThreshold is the angle below which a closing lid plays its sound.
const closeThreshold float32 = 0.5

// Sound is a sound triggered by a lid step.
type Sound uint8

const (
	SoundNone Sound = iota
	SoundOpen
	SoundClose
)

func (s Sound) String() string {
	switch s {
	case SoundOpen:
		return "open"
	case SoundClose:
		return "close"
	default:
		return "none"
	}
}

// State classifies the lid by its angle and direction of travel.
type State uint8

const (
	Closed State = iota
	Opening
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	default:
		return "closing"
	}
}

// Lid is the animated chest lid. Angle runs from 0 (shut) to 1 (fully open).
type Lid struct {
	Angle     float32
	PrevAngle float32
}

// Tick advances the lid one step towards open while anyone is watching and
// towards shut otherwise. It returns the sound to play, if any.
func (l *Lid) Tick(observers int) Sound {
	l.PrevAngle = l.Angle

	sound := SoundNone
	if observers > 0 && l.Angle == 0 {
		sound = SoundOpen
	}

	if observers == 0 && l.Angle > 0 || observers > 0 && l.Angle < 1 {
		prev := l.Angle
		if observers > 0 {
			l.Angle += Step
		} else {
			l.Angle -= Step
		}
		if l.Angle > 1 {
			l.Angle = 1
		}
		if l.Angle < closeThreshold && prev >= closeThreshold {
			sound = SoundClose
		}
		if l.Angle < 0 {
			l.Angle = 0
		}
	}
	return sound
}

// State returns the current classification of the lid.
func (l Lid) State() State {
	switch {
	case l.Angle <= 0:
		return Closed
	case l.Angle >= 1:
		return Open
	case l.Angle < l.PrevAngle:
		return Closing
	default:
		return Opening
	}
}

// Interpolated blends the previous and current angle for rendering between ticks.
func (l Lid) Interpolated(partial float32) float32 {
	return l.PrevAngle + (l.Angle-l.PrevAngle)*partial
}

// Reset shuts the lid immediately.
func (l *Lid) Reset() {
	l.Angle = 0
	l.PrevAngle = 0
}

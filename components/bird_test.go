package components

import (
	"math"
	"testing"

	"github.com/pthm-cable/flap/config"
)

func testPhysics() Physics {
	return PhysicsFromConfig(config.Default())
}

func TestBird_Jump(t *testing.T) {
	p := testPhysics()
	b := NewBird(230, 350)
	b.TickCount = 7
	b.VelY = 3

	b.Jump(p)

	if b.VelY != -10.5 {
		t.Errorf("VelY = %v, want -10.5", b.VelY)
	}
	if b.TickCount != 0 {
		t.Errorf("TickCount = %d, want 0", b.TickCount)
	}
	if b.Y != 350 {
		t.Errorf("Jump moved the bird to Y = %v", b.Y)
	}
}

func TestBird_StepDisplacement(t *testing.T) {
	tests := []struct {
		name      string
		velY      float64
		tickCount int
		wantDY    float64
	}{
		// d = 0*1 + 1.5*1 = 1.5
		{"falling from rest", 0, 0, 1.5},
		// d = -10.5 + 1.5 = -9, rising adds -2
		{"first tick after jump", -10.5, 0, -11},
		// d = -10.5*2 + 1.5*4 = -15, rising adds -2
		{"second tick after jump", -10.5, 1, -17},
		// d = 0*5 + 1.5*25 = 37.5, capped at 16
		{"terminal displacement", 0, 4, 16},
		// d = -10.5*7 + 1.5*49 = 0, not rising
		{"apex", -10.5, 6, 0},
	}

	p := testPhysics()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBird(230, 350)
			b.VelY = tt.velY
			b.TickCount = tt.tickCount

			b.Step(p)

			if got := b.Y - 350; math.Abs(got-tt.wantDY) > 1e-9 {
				t.Errorf("dy = %v, want %v", got, tt.wantDY)
			}
			if b.TickCount != tt.tickCount+1 {
				t.Errorf("TickCount = %d, want %d", b.TickCount, tt.tickCount+1)
			}
		})
	}
}

func TestBird_TickCountMonotonic(t *testing.T) {
	p := testPhysics()
	b := NewBird(230, 350)

	prev := b.TickCount
	for i := 0; i < 50; i++ {
		if i%9 == 0 {
			b.Jump(p)
			if b.TickCount != 0 {
				t.Fatalf("tick %d: Jump left TickCount = %d", i, b.TickCount)
			}
			prev = 0
		}
		b.Step(p)
		if b.TickCount != prev+1 {
			t.Fatalf("tick %d: TickCount = %d, want %d", i, b.TickCount, prev+1)
		}
		prev = b.TickCount
	}
}

func TestBird_NoJumpFallsToFloor(t *testing.T) {
	p := testPhysics()
	b := NewBird(230, 350)

	ticks := 0
	for !b.OutOfBounds(p, 800) {
		b.Step(p)
		ticks++
		if ticks > 1000 {
			t.Fatal("bird never left the playfield")
		}
	}
	if b.Y+p.Height <= 800 {
		t.Errorf("bird stopped at Y = %v without reaching the floor", b.Y)
	}
}

func TestBird_BoundingBox(t *testing.T) {
	p := testPhysics()
	b := NewBird(230, 350)
	box := b.BoundingBox(p)
	if box.Left != 230 || box.Top != 350 || box.Right != 260 || box.Bottom != 380 {
		t.Errorf("BoundingBox = %+v", box)
	}
}

func TestBird_OutOfBounds(t *testing.T) {
	p := testPhysics()
	tests := []struct {
		y    float64
		want bool
	}{
		{-0.5, true},
		{0, false},
		{770, false},
		{770.5, true},
	}
	for _, tt := range tests {
		b := NewBird(230, tt.y)
		if got := b.OutOfBounds(p, 800); got != tt.want {
			t.Errorf("OutOfBounds(y=%v) = %v, want %v", tt.y, got, tt.want)
		}
	}
}

package rewards

import "math/rand/v2"

// Prize es una porción de la rueda.
type Prize struct {
	Coins  int64
	Weight int
}

// DefaultWheel: premios chicos frecuentes, premios grandes raros.
var DefaultWheel = []Prize{
	{Coins: 5, Weight: 40},
	{Coins: 10, Weight: 30},
	{Coins: 25, Weight: 18},
	{Coins: 50, Weight: 9},
	{Coins: 100, Weight: 3},
}

// Picker elige un índice en [0, n).
type Picker func(n int) int

type Wheel struct {
	prizes []Prize
	total  int
	pick   Picker
}

func NewWheel(prizes []Prize, pick Picker) *Wheel {
	if pick == nil {
		pick = rand.IntN
	}
	total := 0
	for _, p := range prizes {
		total += p.Weight
	}
	return &Wheel{prizes: prizes, total: total, pick: pick}
}

func (w *Wheel) Spin() int64 {
	if w.total <= 0 {
		return 0
	}
	n := w.pick(w.total)
	for _, p := range w.prizes {
		if n < p.Weight {
			return p.Coins
		}
		n -= p.Weight
	}
	return w.prizes[len(w.prizes)-1].Coins
}

package motion

// EaseOutCubic maps normalized time t to normalized progress along a
// decelerating cubic curve: fast start, slow finish. Input is clamped to
// [0,1]; the result satisfies f(0)=0, f(1)=1 and f(t)>t on (0,1).
func EaseOutCubic(t float64) float64 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	u := 1 - t
	return 1 - u*u*u
}

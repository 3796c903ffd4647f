package helpers

import "time"

func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Second
}

func IntMillisecondDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Millisecond
}

// HzPeriod converts rate to period, def when hz<=0.
func HzPeriod(hz float64, def time.Duration) time.Duration {
	if hz <= 0 {
		return def
	}
	return time.Duration(float64(time.Second) / hz)
}

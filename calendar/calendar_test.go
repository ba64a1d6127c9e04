// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package calendar

import "testing"

func Test_LastDayOfMonth(t *testing.T) {
	cases := map[string]struct {
		y, m, want int
	}{
		"feb-leap":    {2024, 2, 29},
		"feb-nonleap": {2023, 2, 28},
		"feb-century": {1900, 2, 28}, // not a leap year: divisible by 100 but not 400
		"feb-400":     {2000, 2, 29},
		"apr":         {2024, 4, 30},
		"dec":         {2024, 12, 31},
	}
	for n, tc := range cases {
		if got := LastDayOfMonth(tc.y, tc.m); got != tc.want {
			t.Errorf("%s: got %d want %d", n, got, tc.want)
		}
	}
}

func Test_AddMinute_rollover(t *testing.T) {
	cases := map[string]struct {
		in, want Time
	}{
		"plain":      {Time{2026, 5, 12, 2, 10, 0, 1}, Time{2026, 5, 12, 2, 10, 1, 1}},
		"hour":       {Time{2026, 5, 12, 2, 10, 59, 1}, Time{2026, 5, 12, 2, 11, 0, 1}},
		"day":        {Time{2026, 5, 12, 2, 23, 59, 1}, Time{2026, 5, 13, 3, 0, 0, 1}},
		"wday-wrap":  {Time{2026, 5, 12, 7, 23, 59, 1}, Time{2026, 5, 13, 1, 0, 0, 1}},
		"month":      {Time{2026, 5, 31, 2, 23, 59, 1}, Time{2026, 6, 1, 3, 0, 0, 1}},
		"year":       {Time{2026, 12, 31, 2, 23, 59, 1}, Time{2027, 1, 1, 3, 0, 0, 1}},
		"leap-day":   {Time{2024, 2, 28, 2, 23, 59, 1}, Time{2024, 2, 29, 3, 0, 0, 1}},
		"nonleap-28": {Time{2023, 2, 28, 2, 23, 59, 1}, Time{2023, 3, 1, 3, 0, 0, 1}},
	}
	for n, tc := range cases {
		if got := AddMinute(tc.in, false); got != tc.want {
			t.Errorf("%s: got %+v want %+v", n, got, tc.want)
		}
	}
}

func Test_AddMinute_SubtractMinute_roundtrip(t *testing.T) {
	start := Time{2026, 5, 12, 2, 10, 30, 1}
	cur := start
	for i := 0; i < 10000; i++ {
		cur = AddMinute(cur, false)
	}
	for i := 0; i < 10000; i++ {
		cur = SubtractMinute(cur, false)
	}
	if cur != start {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", cur, start)
	}
}

func Test_CenturyOffset(t *testing.T) {
	// 2026-07-31 is a Friday (wday 5).
	tm := Time{Year: 26, Month: 7, MDay: 31, WDay: 5}
	if got := CenturyOffset(tm); got != 1 {
		t.Fatalf("got %d want 1 (20xx)", got)
	}

	// No candidate century makes an impossible date/weekday combination match.
	bad := Time{Year: 26, Month: 7, MDay: 31, WDay: 1}
	if got := CenturyOffset(bad); got != -1 {
		t.Fatalf("got %d want -1", got)
	}
}

func Test_CenturyOffset_mdayOutOfRange(t *testing.T) {
	tm := Time{Year: 26, Month: 2, MDay: 30, WDay: 5}
	if got := CenturyOffset(tm); got != -1 {
		t.Fatalf("got %d want -1 for Feb 30", got)
	}
}

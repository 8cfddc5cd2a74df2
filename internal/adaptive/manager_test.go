package adaptive

import "testing"

func TestNextDifficultyStepping(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name       string
		current    int
		wasCorrect bool
		testType   string
		expected   int
	}{
		{"correct steps up", 5, true, "official", 6},
		{"incorrect steps down", 5, false, "official", 4},
		{"official capped at 10", 10, true, "official", 10},
		{"practice capped at 8", 8, true, "practice", 8},
		{"practice above cap clamps", 9, true, "practice", 8},
		{"floored at 1", 1, false, "official", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.NextDifficulty(tc.current, tc.wasCorrect, tc.testType)
			if got != tc.expected {
				t.Errorf("NextDifficulty(%d, %v, %s) = %d, want %d",
					tc.current, tc.wasCorrect, tc.testType, got, tc.expected)
			}
		})
	}
}

func TestAllCorrectMonotonicity(t *testing.T) {
	engine := NewEngine(nil)

	current := engine.StartDifficulty()
	for i := 0; i < 20; i++ {
		next := engine.NextDifficulty(current, true, "official")
		if next < current {
			t.Fatalf("difficulty decreased on correct answer: %d -> %d", current, next)
		}
		if next > engine.MaxFor("official") {
			t.Fatalf("difficulty %d exceeds official max %d", next, engine.MaxFor("official"))
		}
		current = next
	}
	if current != engine.MaxFor("official") {
		t.Errorf("expected cursor to reach max %d, got %d", engine.MaxFor("official"), current)
	}
}

func TestAllIncorrectMonotonicity(t *testing.T) {
	engine := NewEngine(nil)

	current := engine.StartDifficulty()
	for i := 0; i < 20; i++ {
		next := engine.NextDifficulty(current, false, "practice")
		if next > current {
			t.Fatalf("difficulty increased on incorrect answer: %d -> %d", current, next)
		}
		if next < 1 {
			t.Fatalf("difficulty %d fell below floor", next)
		}
		current = next
	}
	if current != 1 {
		t.Errorf("expected cursor to bottom out at 1, got %d", current)
	}
}

func TestBandsWidenProgressively(t *testing.T) {
	engine := NewEngine(nil)

	bands := engine.Bands(5, "official")
	if len(bands) == 0 {
		t.Fatal("expected at least one band")
	}

	// First band is the exact cursor with default tolerance 0.
	if bands[0].Min != 5 || bands[0].Max != 5 {
		t.Errorf("first band = [%d,%d], want [5,5]", bands[0].Min, bands[0].Max)
	}

	// Every band keeps the cursor inside it.
	for i, band := range bands {
		if !band.Contains(5) {
			t.Errorf("band %d [%d,%d] does not contain the cursor", i, band.Min, band.Max)
		}
	}

	// Each band contains the previous one.
	for i := 1; i < len(bands); i++ {
		if bands[i].Min > bands[i-1].Min || bands[i].Max < bands[i-1].Max {
			t.Errorf("band %d [%d,%d] does not contain band %d [%d,%d]",
				i, bands[i].Min, bands[i].Max, i-1, bands[i-1].Min, bands[i-1].Max)
		}
	}

	// Final band spans the whole scale for the test type.
	last := bands[len(bands)-1]
	if last.Min != 1 || last.Max != 10 {
		t.Errorf("last band = [%d,%d], want [1,10]", last.Min, last.Max)
	}
}

func TestBandsRespectPracticeCap(t *testing.T) {
	engine := NewEngine(nil)

	for _, band := range engine.Bands(8, "practice") {
		if band.Max > 8 {
			t.Errorf("practice band [%d,%d] exceeds cap 8", band.Min, band.Max)
		}
	}
}

func TestBandsNoDuplicates(t *testing.T) {
	engine := NewEngine(nil)

	bands := engine.Bands(1, "official")
	seen := map[Band]bool{}
	for _, b := range bands {
		if seen[b] {
			t.Errorf("duplicate band [%d,%d]", b.Min, b.Max)
		}
		seen[b] = true
	}
}

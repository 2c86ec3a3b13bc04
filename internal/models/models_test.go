package models

import (
	"encoding/json"
	"testing"
)

func TestSongDecoding(t *testing.T) {
	t.Run("Tri-State Mastery", func(t *testing.T) {
		data := `{"id":1,"title":"A","skills":[
			{"id":1,"name":"Chords","is_mastered":null},
			{"id":2,"name":"Solo","is_mastered":0},
			{"id":3,"name":"Vocals","is_mastered":1},
			{"id":4,"name":"Riff","is_mastered":true}
		]}`

		var song Song
		if err := json.Unmarshal([]byte(data), &song); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []Mastery{Unassigned, Unmastered, Mastered, Mastered}
		if len(song.Skills) != len(want) {
			t.Fatalf("expected %d skills, got %d", len(want), len(song.Skills))
		}
		for i, m := range want {
			if song.Skills[i].IsMastered != m {
				t.Errorf("skill %d: expected %v, got %v", i, m, song.Skills[i].IsMastered)
			}
		}
	})

	t.Run("Duplicate Skill Ids Keep First", func(t *testing.T) {
		data := `{"id":1,"skills":[
			{"id":7,"name":"Chords","is_mastered":1},
			{"id":7,"name":"Chords","is_mastered":0}
		]}`

		var song Song
		if err := json.Unmarshal([]byte(data), &song); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(song.Skills) != 1 {
			t.Fatalf("expected 1 skill, got %d", len(song.Skills))
		}
		if song.Skills[0].IsMastered != Mastered {
			t.Error("expected first entry to win")
		}
	})

	t.Run("Null Fields", func(t *testing.T) {
		data := `{"id":1,"difficulty":null,"last_practiced":null,"release_date":null,"audio_path":null,"practice_target":null}`

		var song Song
		if err := json.Unmarshal([]byte(data), &song); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if song.Difficulty != DifficultyNormal {
			t.Errorf("expected normal difficulty, got %q", song.Difficulty)
		}
		if song.LastPracticed != "" || song.ReleaseDate != "" || song.AudioPath != "" {
			t.Error("expected null strings to decode as empty")
		}
		if song.HasTarget() {
			t.Error("expected no practice target")
		}
	})

	t.Run("Invalid Mastery", func(t *testing.T) {
		var song Song
		err := json.Unmarshal([]byte(`{"skills":[{"id":1,"is_mastered":"yes"}]}`), &song)
		if err == nil {
			t.Error("expected error for invalid is_mastered")
		}
	})

	t.Run("Mastery Round Trip Encoding", func(t *testing.T) {
		out, err := json.Marshal([]Mastery{Unassigned, Unmastered, Mastered})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(out) != "[null,0,1]" {
			t.Errorf("expected [null,0,1], got %s", out)
		}
	})
}

func TestSongDerivedValues(t *testing.T) {
	t.Run("Progress", func(t *testing.T) {
		tests := []struct {
			name   string
			count  int
			target int
			want   float64
		}{
			{"no target", 5, 0, 0},
			{"half", 2, 4, 50},
			{"capped", 10, 4, 100},
			{"none", 0, 3, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := Song{PracticeCount: tt.count, PracticeTarget: tt.target}
				if got := s.Progress(); got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}
	})

	t.Run("Practice Gap Is Signed", func(t *testing.T) {
		s := Song{PracticeCount: 7, PracticeTarget: 5}
		if got := s.PracticeGap(); got != -2 {
			t.Errorf("expected -2, got %d", got)
		}
	})

	t.Run("Skill Tier And Mastered Count", func(t *testing.T) {
		s := Song{Skills: []SkillAssignment{
			{SkillID: 1, Name: "Chords", IsMastered: Mastered},
			{SkillID: 2, Name: "Solo", IsMastered: Unmastered},
			{SkillID: 3, Name: "Vocals", IsMastered: Unassigned},
		}}

		if s.MasteredCount() != 1 {
			t.Errorf("expected 1 mastered, got %d", s.MasteredCount())
		}
		if len(s.AssignedSkills()) != 2 {
			t.Errorf("expected 2 assigned, got %d", len(s.AssignedSkills()))
		}
		for name, want := range map[string]int{"Chords": 2, "Solo": 1, "Vocals": 0, "Unknown": 0} {
			if got := s.SkillTier(name); got != want {
				t.Errorf("%s: expected tier %d, got %d", name, want, got)
			}
		}
	})

	t.Run("Last Practiced Parsing", func(t *testing.T) {
		for _, v := range []string{"2024-03-01T10:00:00", "2024-03-01T10:00:00.123456", "2024-03-01", "2024-03-01T10:00:00Z"} {
			s := Song{LastPracticed: v}
			if _, ok := s.LastPracticedAt(); !ok {
				t.Errorf("expected %q to parse", v)
			}
		}
		if _, ok := (Song{}).LastPracticedAt(); ok {
			t.Error("expected missing timestamp to report false")
		}
	})
}

func TestOverallMastery(t *testing.T) {
	t.Run("Null Entries Are Excluded", func(t *testing.T) {
		songs := []Song{
			{Skills: []SkillAssignment{{SkillID: 1, IsMastered: Mastered}, {SkillID: 2, IsMastered: Unassigned}}},
			{Skills: []SkillAssignment{{SkillID: 1, IsMastered: Unmastered}, {SkillID: 3, IsMastered: Mastered}}},
		}

		sum := OverallMastery(songs)
		if sum.Assigned != 3 || sum.Mastered != 2 {
			t.Errorf("expected 2/3, got %d/%d", sum.Mastered, sum.Assigned)
		}
		if sum.Percent() != 67 {
			t.Errorf("expected 67%%, got %d", sum.Percent())
		}
	})

	t.Run("Nothing Assigned", func(t *testing.T) {
		sum := OverallMastery([]Song{{Skills: []SkillAssignment{{SkillID: 1}}}})
		if sum.Percent() != 0 {
			t.Errorf("expected 0, got %d", sum.Percent())
		}
	})
}

func TestTagCycles(t *testing.T) {
	t.Run("Priority", func(t *testing.T) {
		if PriorityMid.Next() != PriorityHigh || PriorityHigh.Next() != PriorityLow || PriorityLow.Next() != PriorityMid {
			t.Error("unexpected priority cycle")
		}
		if Priority("").Rank() != PriorityMid.Rank() {
			t.Error("expected unknown priority to rank as mid")
		}
	})

	t.Run("Difficulty", func(t *testing.T) {
		if DifficultyNormal.Next() != DifficultyEasy || DifficultyEasy.Next() != DifficultyHard || DifficultyHard.Next() != DifficultyNormal {
			t.Error("unexpected difficulty cycle")
		}
		if Difficulty("").Rank() != DifficultyNormal.Rank() {
			t.Error("expected missing difficulty to rank as normal")
		}
	})
}

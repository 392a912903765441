package lookup

import (
	"strings"
	"testing"

	"github.com/rsdtools/releaselink/internal/release"
)

func TestBuildKey(t *testing.T) {
	k := BuildKey("  Radiohead ", " OK Computer ")
	if k.Exact != "Radiohead|OK Computer" {
		t.Errorf("Exact = %q", k.Exact)
	}
	if k.Lower != "radiohead|ok computer" {
		t.Errorf("Lower = %q", k.Lower)
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key    string
		artist string
		title  string
		ok     bool
	}{
		{"Radiohead|OK Computer", "Radiohead", "OK Computer", true},
		{"AC|DC|Back In Black", "AC", "DC|Back In Black", true},
		{"NoSeparator", "", "", false},
		{"Artist|", "", "", false},
		{"|Title", "", "", false},
	}
	for _, tt := range tests {
		artist, title, ok := SplitKey(tt.key)
		if artist != tt.artist || title != tt.title || ok != tt.ok {
			t.Errorf("SplitKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.key, artist, title, ok, tt.artist, tt.title, tt.ok)
		}
	}
}

func TestTableInsert(t *testing.T) {
	t.Run("adds exact and lowercase variant", func(t *testing.T) {
		table := NewTable()
		table.Insert("Radiohead", "OK Computer", "img")
		if table.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", table.Len())
		}
		keys := table.Keys()
		if keys[0] != "Radiohead|OK Computer" || keys[1] != "radiohead|ok computer" {
			t.Errorf("unexpected key order %v", keys)
		}
	})

	t.Run("lowercase key adds no variant", func(t *testing.T) {
		table := NewTable()
		table.Insert("beck", "odelay", "img")
		if table.Len() != 1 {
			t.Errorf("Len() = %d, want 1", table.Len())
		}
	})

	t.Run("existing lowercase variant is kept", func(t *testing.T) {
		table := NewTable()
		table.Set("radiohead|ok computer", "first")
		table.Insert("Radiohead", "OK Computer", "second")

		if v, _ := table.Get("radiohead|ok computer"); v != "first" {
			t.Errorf("lowercase variant = %q, want first", v)
		}
		if v, _ := table.Get("Radiohead|OK Computer"); v != "second" {
			t.Errorf("exact key = %q, want second", v)
		}
	})

	t.Run("other casing of an inserted pair adds no variant", func(t *testing.T) {
		table := NewTable()
		table.Insert("Radiohead", "OK Computer", "first")
		table.Insert("RADIOHEAD", "OK COMPUTER", "second")

		if table.Len() != 3 {
			t.Fatalf("Len() = %d, want 3", table.Len())
		}
		if v, _ := table.Get("radiohead|ok computer"); v != "first" {
			t.Errorf("lowercase variant = %q, want first", v)
		}
	})

	t.Run("first writer wins", func(t *testing.T) {
		table := NewTable()
		table.Insert("Radiohead", "OK Computer", "first")
		table.Insert("Radiohead", "OK Computer", "second")
		if v, _ := table.Get("Radiohead|OK Computer"); v != "first" {
			t.Errorf("value = %q, want first", v)
		}
	})

	t.Run("empty value ignored", func(t *testing.T) {
		table := NewTable()
		table.Insert("Radiohead", "OK Computer", "")
		if table.Len() != 0 {
			t.Errorf("Len() = %d, want 0", table.Len())
		}
	})
}

func TestKeysSnapshot(t *testing.T) {
	table := NewTable()
	table.Set("A|B", "1")
	keys := table.Keys()
	table.Set("C|D", "2")
	if len(keys) != 1 {
		t.Errorf("snapshot changed after insert: %v", keys)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Table)
		artist  string
		title   string
		want    string
		rule    Rule
		matched bool
	}{
		{
			name: "exact precedes fuzzy",
			setup: func(tb *Table) {
				tb.Insert("Artist", "Title (Deluxe)", "decoy")
				tb.Insert("Artist", "Title", "X")
			},
			artist: "Artist", title: "Title",
			want: "X", rule: RuleExact, matched: true,
		},
		{
			name: "lowercased key",
			setup: func(tb *Table) {
				tb.Insert("Radiohead", "OK Computer", "img")
			},
			artist: "RADIOHEAD", title: "OK COMPUTER",
			want: "img", rule: RuleLowercase, matched: true,
		},
		{
			name: "reissue suffix resolves through normalization",
			setup: func(tb *Table) {
				tb.Insert("Radiohead", "OK Computer", "https://img/123:250")
			},
			artist: "Radiohead", title: "OK Computer (RSD Reissue)",
			want: "https://img/123:250", rule: RuleNormalizedTitle, matched: true,
		},
		{
			name: "empty artist never matches",
			setup: func(tb *Table) {
				tb.Insert("Artist", "Title", "X")
			},
			artist: "", title: "Title",
		},
		{
			name: "blank artist keys are never stored",
			setup: func(tb *Table) {
				tb.Insert("", "Title", "X")
				tb.Insert("  ", "Kid A", "Y")
			},
			artist: "", title: "Title",
		},
		{
			name: "blank artist query misses lowercase key",
			setup: func(tb *Table) {
				tb.Set("|kid a", "Y")
			},
			artist: " ", title: "kid a",
		},
		{
			name: "whitespace artist never matches",
			setup: func(tb *Table) {
				tb.Insert("Artist", "Title Deluxe", "X")
			},
			artist: "   ", title: "Title",
		},
		{
			name: "short core title never fuzzes",
			setup: func(tb *Table) {
				tb.Insert("Radiohead", "A1 Extended", "X")
			},
			artist: "Radiohead", title: "A1",
		},
		{
			name: "never crosses artists",
			setup: func(tb *Table) {
				tb.Insert("Radiohead", "OK Computer", "X")
			},
			artist: "Coldplay", title: "OK Computer (RSD Reissue)",
		},
		{
			name: "artist normalization allows leading article",
			setup: func(tb *Table) {
				tb.Insert("The Cure", "Disintegration", "X")
			},
			artist: "Cure", title: "Disintegration (Deluxe Edition)",
			want: "X", rule: RuleNormalizedTitle, matched: true,
		},
		{
			name: "all lowercase keys are not scanned",
			setup: func(tb *Table) {
				tb.Set("radiohead|kid a", "shadow")
			},
			artist: "Radiohead", title: "Kid A (RSD)",
		},
		{
			name: "malformed keys skipped",
			setup: func(tb *Table) {
				tb.Set("Radiohead", "bad")
				tb.Set("Radiohead|", "bad")
			},
			artist: "Radiohead", title: "Amnesiac",
		},
		{
			name: "first candidate in insertion order wins",
			setup: func(tb *Table) {
				tb.Insert("Bowie", "Low Symphony", "first")
				tb.Insert("Bowie", "Low Remix", "second")
			},
			artist: "Bowie", title: "Low (RSD Edition)",
			want: "first", rule: RuleTitleOverlap, matched: true,
		},
		{
			name: "shared long word",
			setup: func(tb *Table) {
				tb.Insert("Miles Davis", "Kind Of Blue Mono", "X")
			},
			artist: "Miles Davis", title: "Blue Sessions",
			want: "X", rule: RuleTitleOverlap, matched: true,
		},
		{
			name: "query core found past the candidate core cap",
			setup: func(tb *Table) {
				tb.Insert("Artist", strings.Repeat("ab ", 17)+"zyxwvutsrq", "X")
			},
			artist: "Artist", title: "Zyxwvutsrq",
			want: "X", rule: RuleQueryPrefix, matched: true,
		},
		{
			name: "unrelated titles",
			setup: func(tb *Table) {
				tb.Insert("Radiohead", "Amnesiac", "X")
			},
			artist: "Radiohead", title: "Hail To The Thief",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			tt.setup(table)

			m, ok := Resolve(table, tt.artist, tt.title)
			if ok != tt.matched {
				t.Fatalf("Resolve(%q, %q) matched = %v, want %v (match %+v)", tt.artist, tt.title, ok, tt.matched, m)
			}
			if !ok {
				return
			}
			if m.Value != tt.want {
				t.Errorf("Value = %q, want %q", m.Value, tt.want)
			}
			if m.Rule != tt.rule {
				t.Errorf("Rule = %q, want %q", m.Rule, tt.rule)
			}
		})
	}
}

func TestResolveNilTable(t *testing.T) {
	if _, ok := Resolve(nil, "Artist", "Title"); ok {
		t.Error("expected no match on nil table")
	}
}

func TestLookup(t *testing.T) {
	table := NewTable()
	table.Insert("Radiohead", "OK Computer", "https://img/123:250")

	v, ok := Lookup(table, "Radiohead", "OK Computer (RSD Reissue)")
	if !ok || v != "https://img/123:250" {
		t.Errorf("Lookup = (%q, %v)", v, ok)
	}
}

func TestTitleOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"empty a", "", "abc", false},
		{"empty b", "abc", "", false},
		{"equal", "ok computer", "ok computer", true},
		{"substring", "ok computer", "ok computer oknotok", true},
		{"shared long word", "kid a mnesia", "amnesiac mnesia", true},
		{"shared short word only", "ok go", "ok now", false},
		{"shared twelve char prefix", "abcdefghijk1xyz", "abcdefghijk1qrs", true},
		{"long but different", "abcdefghijkl", "zzzzzzzzzzzz", false},
		{"short and different", "abc", "xyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("TitleOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBuildTables(t *testing.T) {
	records := []release.Record{
		{Artist: "Radiohead", Title: "OK Computer", ImageURL: "img1", ExternalID: "101"},
		{Artist: "beck", Title: "odelay", ImageURL: "img2"},
		{Artist: "", Title: "No Artist", ImageURL: "img3"},
		{Artist: "Bjork", Title: "Post", ExternalID: "103"},
	}

	tables := BuildTables(records)

	if got := tables.Images.Keys(); len(got) != 3 || got[0] != "Radiohead|OK Computer" || got[2] != "beck|odelay" {
		t.Errorf("image keys = %v", got)
	}
	if got := tables.IDs.Keys(); len(got) != 4 {
		t.Errorf("id keys = %v", got)
	}
	if v, _ := tables.IDs.Get("bjork|post"); v != "103" {
		t.Errorf("id for bjork|post = %q", v)
	}
}

func TestInsertIgnoresBlankHalves(t *testing.T) {
	table := NewTable()
	table.Insert("", "OK Computer", "v")
	table.Insert("  ", "Kid A", "w")
	table.Insert("Radiohead", " ", "x")

	if table.Len() != 0 {
		t.Errorf("keys = %v, want none", table.Keys())
	}
	if _, ok := Lookup(table, "", "OK Computer"); ok {
		t.Error("blank artist resolved")
	}
}

func TestAddAliases(t *testing.T) {
	table := NewTable()
	table.Insert("Radiohead", "OK Computer", "img")

	records := []release.Record{
		{Artist: "Radiohead", Title: "OK Computer OKNOTOK 1997 2017"},
		{Artist: "Coldplay", Title: "OK Computer"},
		{Artist: "Radiohead", Title: "OK Computer"},
		{Artist: "Radiohead", Title: "Amnesiac"},
	}

	added := AddAliases(table, records)
	if added != 1 {
		t.Fatalf("AddAliases added %d, want 1", added)
	}
	if v, ok := table.Get("radiohead|ok computer oknotok 1997 2017"); !ok || v != "img" {
		t.Errorf("alias = (%q, %v)", v, ok)
	}
	if _, ok := table.Get("Radiohead|OK Computer OKNOTOK 1997 2017"); ok {
		t.Error("alias stored under exact-case key")
	}
	if v, ok := Lookup(table, "Radiohead", "OK Computer OKNOTOK 1997 2017"); !ok || v != "img" {
		t.Errorf("lookup through alias = (%q, %v)", v, ok)
	}
	for _, k := range Explain(table, "Radiohead", "OK Computer OKNOTOK", 0) {
		if IsLowercase(k.Key) {
			t.Errorf("alias %q offered as scan candidate", k.Key)
		}
	}
	if _, ok := table.Get("Coldplay|OK Computer"); ok {
		t.Error("alias crossed artists")
	}
}

func TestExplain(t *testing.T) {
	table := NewTable()
	table.Insert("Radiohead", "OK Computer", "img-ok")
	table.Insert("Radiohead", "Kid A", "img-kid")
	table.Insert("Radiohead", "Amnesiac", "img-am")
	table.Insert("Blur", "Kid A", "img-blur")

	got := Explain(table, "Radiohead", "Kid B", 2)
	if len(got) != 2 {
		t.Fatalf("Explain returned %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Key != "Radiohead|Kid A" || got[0].Distance != 1 || got[0].Rule != "" {
		t.Errorf("nearest = %+v", got[0])
	}

	got = Explain(table, "radiohead", "kid a", 0)
	if len(got) != 3 {
		t.Fatalf("Explain returned %d candidates, want 3", len(got))
	}
	if got[0].Key != "Radiohead|Kid A" || got[0].Distance != 0 || got[0].Rule != RuleNormalizedTitle {
		t.Errorf("nearest = %+v", got[0])
	}

	if got := Explain(table, "", "Kid A", 0); got != nil {
		t.Errorf("empty artist = %+v", got)
	}
}

func TestRuleFuzzy(t *testing.T) {
	for _, r := range []Rule{RuleExact, RuleLowercase} {
		if r.Fuzzy() {
			t.Errorf("%s reported fuzzy", r)
		}
	}
	for _, r := range []Rule{RuleNormalizedTitle, RuleCoreTitle, RuleTitleOverlap, RuleQueryPrefix, RuleCandidatePrefix} {
		if !r.Fuzzy() {
			t.Errorf("%s not reported fuzzy", r)
		}
	}
}

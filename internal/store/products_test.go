package store

import "testing"

func TestResolveConflictKey(t *testing.T) {
	const url = "https://auctions.yahoo.co.jp/item/x100"

	tests := []struct {
		name     string
		incoming string
		stored   string
		wantID   string
		rekey    bool
	}{
		{
			name:     "same id refreshes in place",
			incoming: "x100",
			stored:   "x100",
			wantID:   "x100",
			rekey:    false,
		},
		{
			name:     "url-derived incoming defers to stored auction id",
			incoming: url,
			stored:   "x100",
			wantID:   "x100",
			rekey:    false,
		},
		{
			name:     "auction id takes over a url-keyed row",
			incoming: "x100",
			stored:   url,
			wantID:   "x100",
			rekey:    true,
		},
		{
			name:     "newer auction id replaces a stale one",
			incoming: "x200",
			stored:   "x100",
			wantID:   "x200",
			rekey:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, rekey := resolveConflictKey(tt.incoming, url, tt.stored)
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if rekey != tt.rekey {
				t.Errorf("rekey = %v, want %v", rekey, tt.rekey)
			}
		})
	}
}

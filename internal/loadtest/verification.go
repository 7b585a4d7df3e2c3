package loadtest

import (
	"fmt"
)

// Verify checks that board is ordered by XP with competition ranks
// (1, 2, 2, 4) and that every per-athlete rank agrees with it.
func Verify(board []Entry, ranks map[string]Entry) error {
	if len(board) == 0 {
		return fmt.Errorf("%w: empty leaderboard", ErrInconsistent)
	}
	if board[0].Rank != 1 {
		return fmt.Errorf("%w: top entry has rank %d", ErrInconsistent, board[0].Rank)
	}

	positions := make(map[string]int, len(board))
	positions[board[0].AthleteID] = 0
	for i := 1; i < len(board); i++ {
		prev, cur := board[i-1], board[i]
		if cur.XP > prev.XP {
			return fmt.Errorf("%w: entry %d has more XP than entry %d", ErrInconsistent, i, i-1)
		}
		want := i + 1
		if cur.XP == prev.XP {
			want = prev.Rank
		}
		if cur.Rank != want {
			return fmt.Errorf("%w: entry %d (%s) has rank %d, want %d", ErrInconsistent, i, cur.AthleteID, cur.Rank, want)
		}
		if _, dup := positions[cur.AthleteID]; dup {
			return fmt.Errorf("%w: athlete %s listed twice", ErrInconsistent, cur.AthleteID)
		}
		positions[cur.AthleteID] = i
	}

	cutoff := board[len(board)-1].XP
	for id, e := range ranks {
		i, listed := positions[id]
		switch {
		case listed && (board[i].Rank != e.Rank || board[i].XP != e.XP):
			return fmt.Errorf("%w: %s is rank %d with %d XP on the board but rank %d with %d XP alone",
				ErrInconsistent, id, board[i].Rank, board[i].XP, e.Rank, e.XP)
		case !listed && e.XP > cutoff:
			return fmt.Errorf("%w: %s has %d XP but is missing from the board", ErrInconsistent, id, e.XP)
		}
	}
	return nil
}

package gradebook

// Resolution is the applicable mark for one student's answers on one unit.
type Resolution struct {
	Mark      *float64
	HasAnswer bool
	IsStale   bool
}

type answerMark struct {
	answer Answer
	mark   *Mark
	stale  bool
}

// latestMark returns the most recently created mark. Equal timestamps keep the first one.
func latestMark(marks []Mark) *Mark {
	if len(marks) == 0 {
		return nil
	}
	latest := &marks[0]
	for i := 1; i < len(marks); i++ {
		if marks[i].CreatedAt.After(latest.CreatedAt) {
			latest = &marks[i]
		}
	}
	return latest
}

func resolveAnswer(answer Answer) answerMark {
	mark := latestMark(answer.Marks)
	return answerMark{
		answer: answer,
		mark:   mark,
		stale:  mark == nil || !mark.ValidFor(answer),
	}
}

// ResolveLatestMark picks the mark that applies to a set of answers belonging to the same
// unit and student. The answers are folded in the order given, so callers must keep
// discovery order stable.
func ResolveLatestMark(answers []Answer) Resolution {
	if len(answers) == 0 {
		return Resolution{IsStale: true}
	}

	res := resolveAnswer(answers[0])
	for _, answer := range answers[1:] {
		next := resolveAnswer(answer)
		switch {
		case res.mark == nil:
			res = next
		case next.answer.UpdatedAt.After(res.answer.UpdatedAt):
			// Intentional: a newer answer without a mark keeps the older mark's value, while
			// staleness is judged against the newest answer alone.
			if next.mark != nil {
				res.mark = next.mark
			}
			res.answer = next.answer
			res.stale = next.mark == nil || !next.mark.ValidFor(next.answer)
		}
	}

	out := Resolution{HasAnswer: true, IsStale: res.stale}
	if res.mark != nil {
		score := res.mark.Score
		out.Mark = &score
	}
	return out
}

package bot

import (
	"fmt"
	"strings"

	"github.com/example/engcards/internal/importer"
	"github.com/example/engcards/internal/scheduler"
	"github.com/example/engcards/internal/study"
	"github.com/example/engcards/internal/tracker"
	"github.com/example/engcards/pkg/models"
)

const helpText = `English cards 🎓

/study - flashcards for the words you are learning
/talk - practise sentence patterns
/stats - your progress
/add term - definition - add words (one per line)
/export - download a JSON backup
/export_xlsx - download a spreadsheet
/template - blank spreadsheet for importing
/import - load a backup, spreadsheet or CSV
/reset - start over`

// parseWordLine reads "term - definition". Hyphenated terms need the spaced separator.
func parseWordLine(line string) (models.NewWord, error) {
	line = strings.TrimSpace(line)

	var term, definition string
	if parts := strings.SplitN(line, " - ", 2); len(parts) == 2 {
		term, definition = parts[0], parts[1]
	} else if parts := strings.Split(line, "-"); len(parts) == 2 {
		term, definition = parts[0], parts[1]
	} else {
		return models.NewWord{}, fmt.Errorf("invalid format: %s", line)
	}

	term = strings.TrimSpace(term)
	definition = strings.TrimSpace(definition)
	if term == "" || definition == "" {
		return models.NewWord{}, fmt.Errorf("empty term or definition: %s", line)
	}
	return models.NewWord{Term: term, Definition: definition}, nil
}

// parseWordLines parses one word per non-empty line and collects the lines it rejected
func parseWordLines(text string) ([]models.NewWord, []string) {
	var words []models.NewWord
	var problems []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nw, err := parseWordLine(line)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		words = append(words, nw)
	}
	return words, problems
}

func progressBar(percent int) string {
	const width = 10
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}

func formatStats(s models.Statistics) string {
	var sb strings.Builder
	sb.WriteString("📊 Your progress\n\n")
	pct := int(s.Progress() + 0.5)
	fmt.Fprintf(&sb, "%s %d%%\n\n", progressBar(pct), pct)
	fmt.Fprintf(&sb, "Words mastered: %d / %d\n", s.MasteredWords, s.TotalWords)
	fmt.Fprintf(&sb, "Sentences mastered: %d / %d\n", s.MasteredSentences, s.TotalSentences)
	fmt.Fprintf(&sb, "🔥 Streak: %s\n", pluralize(s.StreakDays, "day", "days"))
	if s.LastStudyDate != nil {
		fmt.Fprintf(&sb, "Last studied: %s\n", s.LastStudyDate.Format("2006-01-02"))
	}
	return sb.String()
}

func formatCard(card study.Card, done, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 %d / %d  [%s]\n\n", done+1, total, card.Word.Status.Label())
	sb.WriteString(card.Word.Term)
	if card.Word.IPA != "" {
		fmt.Fprintf(&sb, "  /%s/", strings.Trim(card.Word.IPA, "/"))
	}
	sb.WriteString("\n")

	if !card.Flipped {
		if card.Hint != "" {
			fmt.Fprintf(&sb, "\n💡 %s\n", card.Hint)
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "\n➡️ %s\n", card.Word.Definition)
	if card.Word.Example != "" {
		fmt.Fprintf(&sb, "\n📝 %s\n", card.Word.Example)
	}
	return sb.String()
}

func formatWordSummary(s study.WordSummary) string {
	return fmt.Sprintf("🎉 Session complete!\n\nCards: %d\n✅ Known: %d\n🔁 Again: %d", s.Total, s.Known, s.Again)
}

func formatListen(s models.Sentence, pos, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 %s  %d / %d\n\n", s.Pattern, pos+1, total)
	if s.Situation != "" {
		fmt.Fprintf(&sb, "📍 %s\n\n", s.Situation)
	}
	fmt.Fprintf(&sb, "🔊 %s\n%s\n", s.Original, s.Translation)
	return sb.String()
}

func formatSpeak(s models.Sentence) string {
	return fmt.Sprintf("🎤 Now say it in English and send the text (dictation works too):\n\n%s", s.Translation)
}

func formatAttempt(a study.Attempt) string {
	verdict := "✅ Perfect!"
	if !a.Correct {
		verdict = fmt.Sprintf("🟡 %d%% match", int(a.Score*100+0.5))
	}
	return fmt.Sprintf("%s\n\nYou said: %s\nExpected: %s", verdict, a.Transcript, a.Expected)
}

func formatConversationSummary(s study.ConversationSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 %s finished\n\n", s.Pattern)
	fmt.Fprintf(&sb, "Answered: %d / %d\nCorrect: %d\n", len(s.Attempts), s.Total, s.Correct)
	for _, a := range s.Attempts {
		mark := "✅"
		if !a.Correct {
			mark = "🟡"
		}
		fmt.Fprintf(&sb, "\n%s %s", mark, a.Expected)
	}
	return sb.String()
}

func formatAddResult(added, problems []string) string {
	var sb strings.Builder
	if len(added) > 0 {
		fmt.Fprintf(&sb, "✅ Added %s: %s\n", pluralize(len(added), "word", "words"), strings.Join(added, ", "))
	} else {
		sb.WriteString("No words were added.\n")
	}
	if len(problems) > 0 {
		sb.WriteString("\n⚠️ Skipped:\n")
		for _, p := range problems {
			fmt.Fprintf(&sb, "• %s\n", p)
		}
	}
	return sb.String()
}

func formatImportPreview(p *importer.Batch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 %s\n\n", p.Source)
	fmt.Fprintf(&sb, "Words: %d\nSentences: %d\n", len(p.Words), len(p.Sentences))
	if p.Skipped > 0 {
		fmt.Fprintf(&sb, "Skipped (missing or malformed fields): %d\n", p.Skipped)
	}
	sb.WriteString("\nItems already in your collection are kept as they are. Import?")
	return sb.String()
}

func formatMergeResult(r tracker.MergeResult) string {
	if r.Added() == 0 {
		return "ℹ️ Nothing new to import. Everything in the file is already in your collection."
	}
	return fmt.Sprintf("✅ Imported %s and %s.\nAlready present: %d",
		pluralize(r.WordsAdded, "word", "words"),
		pluralize(r.SentencesAdded, "sentence", "sentences"),
		r.WordsSkipped+r.SentencesSkipped)
}

func formatReminder(r scheduler.Reminder) string {
	text := fmt.Sprintf("⏰ You have %s left to learn today.", pluralize(r.Pending, "word", "words"))
	if r.StreakDays > 0 {
		text += fmt.Sprintf("\n🔥 Keep your %s streak going!", pluralize(r.StreakDays, "day", "days"))
	}
	return text
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

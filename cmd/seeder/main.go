package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/brightpath/coursemem"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/ingestion"
)

var transcripts = []string{
	"Welcome to the company onboarding course. This first lesson covers the basics of your employment agreement. Your offer letter describes your role, your compensation and your start date. Please read it carefully before your first day. If anything looks wrong, contact your recruiter right away.",
	"Submitting an expense report is a three step process. First, collect receipts for every purchase over ten dollars. Second, open the expense portal and create a new report with one line per receipt. Third, submit the report to your manager for approval. Reports submitted before the monthly cutoff are reimbursed in the next pay cycle.",
	"Our travel policy applies to all business trips. Book flights and hotels through the approved travel portal whenever possible. Economy class is the default for flights under six hours. Meals during travel are reimbursed up to the daily allowance for your destination. Keep itemized receipts for everything you plan to claim.",
	"Requesting time off starts in the HR portal. Open the absence calendar and select the days you want to take. Your manager receives the request automatically and most requests are approved within two business days. Plan longer vacations at least a month ahead so your team can prepare coverage.",
	"Performance reviews happen twice a year. Before each review, write a short self assessment covering your goals and accomplishments. Your manager combines your assessment with peer feedback to prepare the review conversation. The outcome of the review feeds into compensation planning for the following cycle.",
	"Information security is everyone's responsibility. Use the password manager for every work account and enable two factor authentication wherever it is offered. Never share credentials over email or chat. If you suspect a phishing attempt, report it through the security portal immediately. Lost or stolen devices must be reported within twenty four hours.",
	"Our health benefits enrollment window opens every November. During the window you can change your medical, dental and vision plans. Changes outside the window require a qualifying life event such as marriage or the birth of a child. The benefits team runs weekly office hours throughout the enrollment period.",
	"The workplace conduct policy sets the standard for how we treat each other. Harassment and discrimination are never tolerated. If you experience or witness behavior that violates the policy, report it to your manager, to HR, or through the anonymous hotline. Every report is investigated and retaliation against reporters is itself a policy violation.",
}

var (
	seedFileName = flag.String("src", "", "file of seed transcripts, one per line")
	courseFlag   = flag.Uint64("course", 1, "course to seed")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// ingestLessons ingests each transcript from the source as its own lesson.
func ingestLessons(ctx context.Context, pipeline *ingestion.Pipeline, course core.CourseID, source iter.Seq[string]) error {
	lesson := 0
	for transcript := range source {
		lesson++
		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: transcript,
			Course:     course,
			Lesson:     fmt.Sprintf("lesson-%02d", lesson),
		})
		if err != nil {
			return err
		}
		slog.Info("seeded lesson",
			"lesson", lesson,
			"status", result.Status,
			"chunks", result.ChunksProcessed)
	}
	return nil
}

func main() {
	db, err := coursemem.NewDatabase("./course_db")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ingester, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(transcripts)
	}

	if err := ingestLessons(ctx, ingester, core.CourseID(*courseFlag), source); err != nil {
		panic(err)
	}
}

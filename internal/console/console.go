// Package console owns the interactive session: the prompt loop, command
// dispatch, multiline knowledge capture, and the feedback menu shown
// after every answer. It writes to the terminal directly; structured
// logging goes to the log file so the conversation stays readable.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/chat"
	"github.com/lumina-kb/lumina/internal/feedback"
	"github.com/lumina-kb/lumina/internal/ingest"
	"github.com/lumina-kb/lumina/pkg/logger"
)

type Console struct {
	in  *bufio.Scanner
	out io.Writer

	session  *chat.Session
	ingestor *ingest.Ingestor
	feedback *feedback.Aggregator

	linksFile      string
	transcriptsDir string
}

func New(session *chat.Session, ingestor *ingest.Ingestor, agg *feedback.Aggregator, linksFile, transcriptsDir string, in io.Reader, out io.Writer) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Console{
		in:             scanner,
		out:            out,
		session:        session,
		ingestor:       ingestor,
		feedback:       agg,
		linksFile:      linksFile,
		transcriptsDir: transcriptsDir,
	}
}

// Run drives the prompt loop until the user exits or input closes. A
// failure while handling one line is reported and the loop continues;
// only input exhaustion or context cancellation ends the session.
func (c *Console) Run(ctx context.Context) error {
	c.printIntro()
	fmt.Fprintf(c.out, "\n\nLumina: Hi, how can I help you today? (Type 'exit' to quit, or 'help' for shortcuts)\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok := c.prompt("\nYou: ")
		if !ok {
			fmt.Fprintln(c.out, "\nGoodbye!")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if done := c.handle(ctx, line); done {
			fmt.Fprintln(c.out, "\nGoodbye!")
			return nil
		}
	}
}

// handle dispatches one input line. It returns true when the session
// should end.
func (c *Console) handle(ctx context.Context, line string) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling input", zap.Any("panic", r))
			fmt.Fprintf(c.out, "\nAn error occurred while processing your message: %v\n", r)
		}
	}()

	switch chat.Classify(line) {
	case chat.IntentExit:
		return true

	case chat.IntentHelp:
		c.printShortcuts()

	case chat.IntentTranscripts:
		if err := c.ingestor.IngestTranscripts(ctx, c.transcriptsDir); err != nil {
			fmt.Fprintf(c.out, "\nError processing meeting transcripts: %v\n", err)
		} else {
			fmt.Fprintln(c.out, "\nAll valid meeting transcripts have been processed and stored.")
		}

	case chat.IntentLinksFile:
		if err := c.ingestor.IngestLinksFile(ctx, c.linksFile); err != nil {
			fmt.Fprintf(c.out, "\nFailed to store links from '%s': %v\n", c.linksFile, err)
		} else {
			fmt.Fprintf(c.out, "\nLinks from '%s' have been stored!\n", c.linksFile)
		}

	case chat.IntentLinksInline:
		urls := chat.ExtractURLs(line)
		if len(urls) == 0 {
			fmt.Fprintln(c.out, "\nNo valid URLs found in the message. Please provide a valid URL.")
			break
		}
		if err := c.ingestor.IngestLinks(ctx, urls); err != nil {
			fmt.Fprintf(c.out, "\nFailed to store URL contents: %v\n", err)
		} else {
			fmt.Fprintln(c.out, "\nKnowledge has been stored!")
		}

	case chat.IntentStoreKnowledge:
		c.captureKnowledge(ctx)

	default:
		c.answer(ctx, line)
	}

	return false
}

func (c *Console) answer(ctx context.Context, question string) {
	answer, err := c.session.Respond(ctx, question)
	if err != nil {
		fmt.Fprintf(c.out, "\nAn error occurred while processing your message: %v\n", err)
		return
	}

	fmt.Fprintf(c.out, "\n\nLumina: %s\n", answer)
	c.collectFeedback(ctx)
}

// captureKnowledge reads multiline input terminated by END and stores it
// as manual knowledge under this session's id.
func (c *Console) captureKnowledge(ctx context.Context) {
	fmt.Fprintln(c.out, "\nEnter your knowledge/note below. Type 'END' on a new line when you're finished:")

	var lines []string
	for {
		line, ok := c.read()
		if !ok || strings.ToUpper(strings.TrimSpace(line)) == "END" {
			break
		}
		lines = append(lines, line)
	}

	knowledge := strings.Join(lines, "\n")
	if err := c.ingestor.IngestConversation(ctx, c.session.ID, knowledge); err != nil {
		fmt.Fprintf(c.out, "\nFailed to store knowledge: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "\nStored!")
}

func (c *Console) collectFeedback(ctx context.Context) {
	fmt.Fprintln(c.out, "\nHow was the response?")
	fmt.Fprintln(c.out, "1. Positive")
	fmt.Fprintln(c.out, "2. Negative")
	fmt.Fprintln(c.out, "3. Submit written feedback")
	fmt.Fprintln(c.out, "4. Skip feedback")

	choice, ok := c.prompt("Choose an option: ")
	if !ok {
		return
	}

	switch strings.TrimSpace(choice) {
	case "1":
		c.recordReaction(ctx, feedback.Positive)
		fmt.Fprintln(c.out, "\nThank you for your positive feedback!")

	case "2":
		c.recordReaction(ctx, feedback.Negative)
		fmt.Fprintln(c.out, "\nThank you for your feedback!")
		if written, ok := c.prompt("Optional: Add written feedback: "); ok {
			if written = strings.TrimSpace(written); written != "" {
				c.recordWritten(ctx, written)
				fmt.Fprintln(c.out, "\nWritten feedback received.")
			}
		}

	case "3":
		if written, ok := c.prompt("Write your feedback: "); ok {
			if written = strings.TrimSpace(written); written != "" {
				c.recordWritten(ctx, written)
				fmt.Fprintln(c.out, "\nThank you for your written feedback!")
			}
		}

	default:
		fmt.Fprintln(c.out, "\nSkipping feedback.")
	}
}

func (c *Console) recordReaction(ctx context.Context, kind feedback.Kind) {
	if err := c.feedback.RecordReaction(ctx, kind); err != nil {
		logger.Warn("failed to record reaction", zap.Error(err))
	}
}

func (c *Console) recordWritten(ctx context.Context, text string) {
	if err := c.feedback.RecordWritten(ctx, text, c.session.History()); err != nil {
		logger.Warn("failed to record written feedback", zap.Error(err))
		fmt.Fprintln(c.out, "\nSorry, your written feedback could not be saved.")
	}
}

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	return c.read()
}

func (c *Console) read() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) printIntro() {
	fmt.Fprint(c.out, `
Welcome to Lumina!

What you can do:
- Ask me anything about your team's knowledge base. If I don't know the
  answer, feed it to me so I can learn for next time.
- Paste documentation links and Lumina will read, scrape, and store the
  knowledge within the contents of the link. You can also collect links
  in a file and ask me to process them all, e.g. "upload links from file".
- Type 'store this in the knowledge base' to enter knowledge or context
  directly. Type 'END' on a new line when you're finished.
- Type 'upload meeting transcript' to process all .txt and .vtt files in
  the local transcripts folder.

To display my capabilities at any time, type 'help'.

You'll be asked for feedback after each response to help improve answers.
Note: Lumina is only as good as your data. Please keep it clean, clear,
and useful.
`)
}

func (c *Console) printShortcuts() {
	fmt.Fprintln(c.out, "\n\nShortcuts:")
	fmt.Fprintln(c.out, "1. Type 'upload meeting transcript' to process all files in the local transcripts folder.")
	fmt.Fprintln(c.out, "2. Type 'store/upload/save this in the knowledge base' to enter knowledge or context. Type 'END' on a new line when you're finished.")
	fmt.Fprintln(c.out, "3. Paste links directly, or say 'upload links from file' to process the configured links file.")
	fmt.Fprintln(c.out, "4. Type 'exit' or 'quit' to end the session.")
}

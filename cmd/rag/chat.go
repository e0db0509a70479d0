package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/4thel00z/docrag/internal"
	"github.com/spf13/cobra"
)

func NewChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: `Start a conversation over the workspace documents. Type exit, quit, :q or
/exit to leave. With --watch, documents added to the documents folder are
indexed while the chat is running, once their writes have been quiet for the
debounce window. A document is indexed once per chat; later edits to it are
not picked up until the next chat.

With --transcript every turn is stored in SQLite; --resume continues a
recorded session with its history.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			provider, _ := cmd.Flags().GetString("provider")
			stream, _ := cmd.Flags().GetBool("stream")
			watch, _ := cmd.Flags().GetBool("watch")
			debounce, _ := cmd.Flags().GetDuration("debounce")
			transcriptPath, _ := cmd.Flags().GetString("transcript")
			resume, _ := cmd.Flags().GetString("resume")

			if resume != "" && transcriptPath == "" {
				return fmt.Errorf("%w: --resume needs --transcript", internal.ErrInvalidArgument)
			}

			p, err := a.pipeline(cmd, true)
			if err != nil {
				return err
			}

			var transcript *internal.Transcript
			var opts []internal.SessionOption
			if transcriptPath != "" {
				if transcript, err = internal.OpenTranscript(transcriptPath); err != nil {
					return err
				}
				defer transcript.Close()

				if resume != "" {
					turns, err := transcript.Turns(cmd.Context(), resume)
					if err != nil {
						return err
					}
					if len(turns) == 0 {
						return fmt.Errorf("%w: no recorded session %q", internal.ErrInvalidArgument, resume)
					}
					opts = append(opts, internal.WithSessionID(resume), internal.WithHistory(turns))
				}
			}

			session, report, err := internal.NewAskUseCase(p, a.generators).NewSession(cmd.Context(), provider, limit, opts...)
			if err != nil {
				return err
			}

			// Status output may come from the watcher goroutine.
			errOut := &syncWriter{w: cmd.ErrOrStderr()}
			printIngestReport(errOut, report)
			if transcript != nil {
				fmt.Fprintf(errOut, "session %s (%d earlier turns)\n", session.ID(), len(session.History()))
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var wg sync.WaitGroup
			if watch {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := watchDocuments(ctx, p.DocumentsPath(), debounce, errOut, func(paths []string) {
						ingestNewDocuments(ctx, p, paths, errOut)
					})
					if err != nil {
						fmt.Fprintf(errOut, "watch: %v\n", err)
					}
				}()
			}

			err = runChatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), errOut, session, transcript, stream)
			cancel()
			wg.Wait()
			return err
		},
	}

	addAskFlags(cmd)
	cmd.Flags().Bool("stream", false, "Print answers as they are generated")
	cmd.Flags().Bool("watch", false, "Index documents added to the documents folder during the chat")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching document changes")
	cmd.Flags().String("transcript", "", "Record the conversation in this SQLite database")
	cmd.Flags().String("resume", "", "Continue a session recorded in the transcript")
	return cmd
}

func runChatLoop(ctx context.Context, in io.Reader, out, errOut io.Writer, session *internal.Session, transcript *internal.Transcript, stream bool) error {
	lines, scanErr := readLines(ctx, in)

	for {
		fmt.Fprint(out, "> ")

		var raw string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case raw, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out)
			select {
			case err := <-scanErr:
				return err
			default:
				return nil
			}
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if internal.IsExitCommand(line) {
			return nil
		}

		var reply *internal.Reply
		var err error
		if stream {
			reply, err = session.AskStream(ctx, line, func(delta string) { fmt.Fprint(out, delta) })
			fmt.Fprintln(out)
		} else {
			reply, err = session.Ask(ctx, line)
			if err == nil {
				fmt.Fprintln(out, reply.Turn.Answer)
			}
		}
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}

		if len(reply.Turn.Sources) > 0 {
			ids := make([]string, len(reply.Turn.Sources))
			for i, id := range reply.Turn.Sources {
				ids[i] = id.String()
			}
			fmt.Fprintf(out, "[%s]\n", strings.Join(ids, ", "))
		}

		if transcript != nil {
			if err := transcript.Record(ctx, session.ID(), reply.Turn); err != nil {
				fmt.Fprintf(errOut, "transcript: %v\n", err)
			}
		}
	}
}

// readLines feeds lines from in until EOF or ctx is done, so a blocked
// read never holds up cancellation.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	return lines, scanErr
}

// ingestNewDocuments indexes watched files that are not in the index yet.
// A document already indexed keeps its original fragments.
func ingestNewDocuments(ctx context.Context, p *internal.Pipeline, paths []string, errOut io.Writer) {
	sources, err := p.Discover(paths)
	if err != nil {
		fmt.Fprintf(errOut, "watch: %v\n", err)
		return
	}

	var fresh []internal.Source
	for _, src := range sources {
		if !p.Extractors().Supports(src.Path) {
			continue
		}
		if p.Index().Contains(internal.NewFragmentID(src.ID, 0)) {
			fmt.Fprintf(errOut, "already indexed %s\n", src.ID)
			continue
		}
		fresh = append(fresh, src)
	}
	if len(fresh) == 0 {
		return
	}

	report, err := p.IngestSources(ctx, fresh)
	if err != nil {
		fmt.Fprintf(errOut, "watch: %v\n", err)
		return
	}
	for _, s := range report.Sources {
		fmt.Fprintf(errOut, "indexed %s (%d fragments)\n", s.Source.ID, s.Fragments)
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(errOut, "skipped %s: %s\n", s.Source.ID, s.Reason)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"movie-dropoff/internal/models"
	"movie-dropoff/internal/survey"
)

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Answer the viewing-habits survey",
	Long:  "Asks each question in turn. Type 'b' to go back one question. On the last answer the survey is submitted, the feature vector stored for the session and the overall dropoff prediction printed.",
	RunE:  runSurvey,
}

var (
	surveySessionID string
	surveyNoPredict bool
)

// errBack asks the flow to step back one question.
var errBack = errors.New("back")

func init() {
	surveyCmd.Flags().StringVarP(&surveySessionID, "session", "s", "", "Session id (default: a new random id)")
	surveyCmd.Flags().BoolVar(&surveyNoPredict, "no-predict", false, "Skip the prediction call after submitting")
	rootCmd.AddCommand(surveyCmd)
}

func runSurvey(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, log, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID := surveySessionID
	if sessionID == "" {
		sessionID = survey.NewSessionID()
	}
	flow := survey.NewFlowController(sessionID, a.Store, survey.WithLogger(log))

	out := cmd.OutOrStdout()
	if err := askAll(flow, cmd.InOrStdin(), out); err != nil {
		return err
	}

	vector, err := flow.Submit(ctx)
	if err != nil {
		return fmt.Errorf("failed to submit survey: %w", err)
	}
	fmt.Fprintf(out, "\nSurvey stored for session %s\n", sessionID)

	if surveyNoPredict {
		return nil
	}
	result, err := a.Prediction.Predict(ctx, vector)
	if err != nil {
		fmt.Fprintf(out, "Prediction unavailable: %v\n", err)
		return nil
	}
	return printJSON(out, result)
}

// askAll drives flow from its current question to the last one.
func askAll(flow *survey.FlowController, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	total := flow.QuestionCount()

	for {
		q, err := flow.CurrentQuestion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n[%d/%d] %s %s\n> ", q.ID, total, q.Prompt, hint(q))

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errors.New("input ended before the survey was complete")
		}

		answer, err := parseAnswer(q, scanner.Text())
		if errors.Is(err, errBack) {
			if !flow.Retreat() {
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		if err := flow.SetResponse(q.Field, answer); err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}

		if flow.CanSubmit() {
			return nil
		}
		flow.Advance()
	}
}

func hint(q survey.Question) string {
	switch q.Kind {
	case survey.KindBoolean:
		return "[y/n]"
	case survey.KindIntegerChoice:
		return fmt.Sprintf("[%s-%s]", formatOption(q.Options[0]), formatOption(q.Options[len(q.Options)-1]))
	default:
		return "[0.1-1.0]"
	}
}

func formatOption(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseAnswer reads one typed line for q. "b" means go back.
func parseAnswer(q survey.Question, line string) (models.Answer, error) {
	s := strings.ToLower(strings.TrimSpace(line))
	if s == "b" || s == "back" {
		return models.Answer{}, errBack
	}
	if s == "" {
		return models.Answer{}, errors.New("please answer the question")
	}

	var a models.Answer
	switch q.Kind {
	case survey.KindBoolean:
		switch s {
		case "y", "yes", "true", "1":
			a = models.BoolAnswer(true)
		case "n", "no", "false", "0":
			a = models.BoolAnswer(false)
		default:
			return models.Answer{}, errors.New("answer y or n")
		}
	case survey.KindIntegerChoice:
		n, err := strconv.Atoi(s)
		if err != nil {
			return models.Answer{}, fmt.Errorf("%q is not a whole number", s)
		}
		a = models.CountAnswer(n)
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Answer{}, fmt.Errorf("%q is not a number", s)
		}
		a = models.FractionAnswer(f)
	}

	if !q.Accepts(a) {
		return models.Answer{}, fmt.Errorf("%s is not one of the choices %s", s, hint(q))
	}
	return a, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Command docmask is the document masking engine's command-line entry
// point (spec §6).
//
// Usage:
//
//	docmask <input-file> <output-file>
//	docmask <input-file> --evaluate truth.json
//
// A policy is read from the DOCMASK_ENTITY_POLICY environment variable as
// JSON (spec §3); pseudonymizer keys come from DOC_MASKING_ENV_KEY and
// DOC_MASKING_DOC_KEY. File extension selects dispatch: ".pdf" routes to
// the PDF rewriter, anything else to the text rewriter. On completion the
// command emits a single JSON line and exits 0 on success, 1 on error.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ai-anonymizing-proxy/internal/config"
	"ai-anonymizing-proxy/internal/detectors"
	"ai-anonymizing-proxy/internal/engine"
	"ai-anonymizing-proxy/internal/evaluation"
	"ai-anonymizing-proxy/internal/logger"
	"ai-anonymizing-proxy/internal/metrics"
	"ai-anonymizing-proxy/internal/policy"
	"ai-anonymizing-proxy/internal/pseudonymizer"
	"ai-anonymizing-proxy/internal/security"
	"ai-anonymizing-proxy/internal/span"
	"ai-anonymizing-proxy/internal/textio"
)

// successResult is the JSON line emitted on success (spec §6).
type successResult struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	Output              string `json:"output"`
	InputFile           string `json:"input_file"`
	CharactersProcessed int    `json:"characters_processed"`
}

// errorResult is the JSON line emitted on failure (spec §6/§7).
type errorResult struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// evaluateResult is the JSON line emitted by --evaluate mode (SPEC_FULL §12).
type evaluateResult struct {
	Status         string  `json:"status"`
	InputFile      string  `json:"input_file"`
	TruthFile      string  `json:"truth_file"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

func main() {
	var evaluateTruthFile string

	root := &cobra.Command{
		Use:           "docmask <input-file> [output-file]",
		Short:         "Detect and mask sensitive spans in a document",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if evaluateTruthFile != "" {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if evaluateTruthFile != "" {
				return runEvaluate(args[0], evaluateTruthFile, cmd.OutOrStdout())
			}
			return runMask(args[0], args[1], cmd.OutOrStdout())
		},
	}
	root.Flags().StringVar(&evaluateTruthFile, "evaluate", "", "run detector evaluation against a labelled truth JSON file instead of masking")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMask(inputFile, outputFile string, out io.Writer) error {
	cfg, cfgErr := config.Load(config.LoaderOptions{})
	if cfgErr != nil {
		return emitError("InvalidArguments", fmt.Sprintf("load config: %v", cfgErr))
	}
	log := logger.New("DOCMASK", cfg.LogLevel)
	m := metrics.New()

	content, err := os.ReadFile(inputFile) //nolint:gosec // G304: path is the command's own positional argument
	if err != nil {
		m.ErrorsIO.Add(1)
		return emitIOError(inputFile, err)
	}

	if strings.EqualFold(filepath.Ext(inputFile), ".pdf") {
		// No PDF rasterization/parsing library is wired into this module
		// (spec §1 names it an out-of-scope external collaborator); the
		// PDF path requires the caller to supply already-extracted page
		// tokens via internal/rewriter.RewritePage, which this CLI has no
		// way to obtain from a bare .pdf path.
		return emitError("MissingDependency", "no PDF parsing library is configured; supply page tokens programmatically via internal/rewriter.RewritePage")
	}

	text, err := textio.DecodeUTF8(content)
	if err != nil {
		return emitError("UnicodeDecodeError", fmt.Sprintf("%s: %v", inputFile, err))
	}
	p := loadPolicy()
	pz := buildPseudonymizer(cfg, inputFile, content)
	if pz != nil && cfg.LedgerPath != "" {
		if err := pz.EnableLedger(cfg.LedgerPath, cfg.LedgerCapacity); err != nil {
			log.Warnf("ledger_open", "continuing without a ledger: %v", err)
		} else {
			defer func() {
				if err := pz.CloseLedger(); err != nil {
					log.Warnf("ledger_close", "%v", err)
				}
			}()
		}
	}
	registry := detectors.Default(nil)
	registry.Metrics = m

	result := engine.Process(text, p, registry, pz, m)
	m.DocumentsTotal.Add(1)
	m.DocumentsText.Add(1)
	m.SpansRetained.Add(int64(len(result.Ledger)))

	if err := os.WriteFile(outputFile, []byte(result.MaskedText), 0o600); err != nil {
		m.ErrorsIO.Add(1)
		return emitIOError(outputFile, err)
	}

	log.Infof("mask_document", "processed %d characters, %d spans retained", len(text), len(result.Ledger))
	logSnapshot(log, m)

	return emitJSON(out, successResult{
		Status:              "success",
		Message:             "document masked",
		Output:              outputFile,
		InputFile:           inputFile,
		CharactersProcessed: len(text),
	})
}

func runEvaluate(inputFile, truthFile string, out io.Writer) error {
	cfg, cfgErr := config.Load(config.LoaderOptions{})
	if cfgErr != nil {
		return emitError("InvalidArguments", fmt.Sprintf("load config: %v", cfgErr))
	}
	log := logger.New("DOCMASK", cfg.LogLevel)
	m := metrics.New()

	content, err := os.ReadFile(inputFile) //nolint:gosec // G304: path is the command's own positional argument
	if err != nil {
		m.ErrorsIO.Add(1)
		return emitIOError(inputFile, err)
	}
	truthData, err := os.ReadFile(truthFile) //nolint:gosec // G304: path is the command's own flag value
	if err != nil {
		m.ErrorsIO.Add(1)
		return emitIOError(truthFile, err)
	}

	var truth []evaluation.TruthSpan
	if err := json.Unmarshal(truthData, &truth); err != nil {
		return emitError("InvalidArguments", fmt.Sprintf("decode truth file: %v", err))
	}

	text, err := textio.DecodeUTF8(content)
	if err != nil {
		return emitError("UnicodeDecodeError", fmt.Sprintf("%s: %v", inputFile, err))
	}

	p := loadPolicy()
	registry := detectors.Default(nil)
	registry.Metrics = m
	predicted := engine.Detect(text, p, registry, m)
	result := evaluation.Evaluate(predicted, truth)
	logSnapshot(log, m)

	return emitJSON(out, evaluateResult{
		Status:         "success",
		InputFile:      inputFile,
		TruthFile:      truthFile,
		TruePositives:  result.TruePositives,
		FalsePositives: result.FalsePositives,
		FalseNegatives: result.FalseNegatives,
		Precision:      result.Precision(),
		Recall:         result.Recall(),
		F1:             result.F1(),
	})
}

// loadPolicy decodes DOCMASK_ENTITY_POLICY and, when
// DOCMASK_USE_DEFAULT_TEMPLATES is enabled, fills in a default
// pseudonymize action for every selected entity type that has none.
func loadPolicy() *span.Policy {
	p := policy.ParseAndValidate([]byte(config.EntityPolicyJSON()))
	if config.DefaultTemplatesEnabled() {
		for t := range p.Entities {
			if _, ok := p.ActionFor(t); !ok {
				p.Actions[t] = span.ActionConfig{
					Action:   span.ActionPseudonymize,
					Template: pseudonymizer.DefaultTemplate(t),
				}
			}
		}
	}
	return p
}

func buildPseudonymizer(cfg config.Config, inputFile string, content []byte) *pseudonymizer.Pseudonymizer {
	envKey, docKey := config.PseudonymizerKeys()
	if len(docKey) == 0 {
		docKey = security.DeriveDocumentKey(inputFile, content)
	}
	algo := pseudonymizer.AlgoSHA256
	if cfg.PseudonymizeAlgo == "sha1" {
		algo = pseudonymizer.AlgoSHA1
	}
	return pseudonymizer.New(envKey, docKey, algo)
}

// logSnapshot writes the run's metrics snapshot to stderr at debug level,
// never to stdout (stdout is reserved for the result line, SPEC_FULL.md §10.5).
func logSnapshot(log *logger.Logger, m *metrics.Metrics) {
	snap, err := json.Marshal(m.Snapshot())
	if err != nil {
		return
	}
	log.Debugf("metrics_snapshot", "%s", snap)
}

func emitIOError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return emitError("FileNotFoundError", fmt.Sprintf("%s: %v", path, err))
	case errors.Is(err, fs.ErrPermission):
		return emitError("PermissionError", fmt.Sprintf("%s: %v", path, err))
	default:
		return emitError("UnicodeDecodeError", fmt.Sprintf("%s: %v", path, err))
	}
}

func emitError(kind, message string) error {
	_ = emitJSON(os.Stdout, errorResult{Status: "error", Error: kind, Message: message})
	return fmt.Errorf("%s: %s", kind, message)
}

func emitJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	return enc.Encode(v)
}

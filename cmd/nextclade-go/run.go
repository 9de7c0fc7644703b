package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nextstrain-go/nextclade-go/internal/duckdb"
	"github.com/nextstrain-go/nextclade-go/internal/fasta"
	"github.com/nextstrain-go/nextclade-go/internal/pipeline"
	"github.com/nextstrain-go/nextclade-go/internal/refbundle"
	"github.com/nextstrain-go/nextclade-go/internal/worker"
)

type runFlags struct {
	inputRef      string
	inputGeneMap  string
	inputTree     string
	inputPathogen string
	output        string
	jobs          int
	inOrder       bool
	cachePath     string
	circular      bool
}

func newRunCmd(verbose *bool) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [flags] <input-fasta>...",
		Short: "Analyze sequences against a reference dataset",
		Long: `Run the full analysis pipeline over one or more FASTA files (gzip, bzip2,
xz and zstd inputs are decompressed by extension; '-' reads stdin).
Results are written as NDJSON, one record per input sequence; records
that fail analysis become error records and do not stop the run.`,
		Example: `  nextclade-go run --input-ref ref.fasta --input-annotation genemap.gff \
      --input-tree tree.json --input-pathogen-json pathogen.json \
      -o results.ndjson sequences.fasta.gz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Settings from ~/.nextclade-go.yaml / env apply unless the flag
			// was given explicitly.
			if !cmd.Flags().Changed("jobs") {
				flags.jobs = viper.GetInt("jobs")
			}
			if !cmd.Flags().Changed("in-order") {
				flags.inOrder = viper.GetBool("in_order")
			}
			if !cmd.Flags().Changed("cache") {
				flags.cachePath = viper.GetString("cache")
			}
			return runRun(flags, args, *verbose)
		},
	}

	cmd.Flags().StringVar(&flags.inputRef, "input-ref", "", "Reference genome FASTA (required)")
	cmd.Flags().StringVar(&flags.inputGeneMap, "input-annotation", "", "Gene map GFF3 (required)")
	cmd.Flags().StringVar(&flags.inputTree, "input-tree", "", "Reference tree, Auspice JSON v2 (required)")
	cmd.Flags().StringVar(&flags.inputPathogen, "input-pathogen-json", "", "Pathogen config JSON (required)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output NDJSON file (default: stdout)")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "Worker count (0 = all cores)")
	cmd.Flags().BoolVar(&flags.inOrder, "in-order", true, "Emit results in input order")
	cmd.Flags().StringVar(&flags.cachePath, "cache", "", "DuckDB analyzer-result cache path (empty = no cache)")
	cmd.Flags().BoolVar(&flags.circular, "circular", false, "Treat the reference landmark as circular")

	for _, f := range []string{"input-ref", "input-annotation", "input-tree", "input-pathogen-json"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func runRun(flags runFlags, inputs []string, verbose bool) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	bundle, err := loadBundle(flags)
	if err != nil {
		return err
	}
	logger.Info("loaded reference bundle",
		zap.String("bundle", bundle.ID),
		zap.Int("ref_len", len(bundle.RefSeq)),
		zap.Int("genes", len(bundle.GeneMap.Genes)))

	pipe, err := pipeline.New(bundle, pipeline.OptionsFromConfig(bundle.Config), logger)
	if err != nil {
		return err
	}

	var cache *refbundle.AnalyzerCache
	if flags.cachePath != "" {
		store, err := duckdb.Open(flags.cachePath)
		if err != nil {
			return fmt.Errorf("open analyzer cache: %w", err)
		}
		defer store.Close()
		cache = refbundle.NewAnalyzerCache(store, bundle.ID)
		logger.Info("analyzer cache enabled",
			zap.String("path", flags.cachePath), zap.String("run_id", cache.RunID()))
	}

	in, closeIn, err := fasta.OpenConcat(inputs)
	if err != nil {
		return err
	}
	defer closeIn.Close()

	out := os.Stdout
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)

	reader := fasta.NewReader(in)
	index := 0
	next := func() (worker.Record, bool, error) {
		rec, ok, err := reader.Next()
		if err != nil || !ok {
			return worker.Record{}, false, err
		}
		r := worker.Record{Index: index, Name: rec.Name, Seq: rec.Seq}
		index++
		return r, true, nil
	}

	process := func(ctx context.Context, rec worker.Record) (any, error) {
		return analyzeOne(pipe, cache, rec)
	}

	var analyzed, failed int
	emit := func(res worker.Result) error {
		if res.Err != nil {
			failed++
			logger.Warn("sequence failed analysis",
				zap.Int("index", res.Index), zap.String("seq", res.Name), zap.Error(res.Err))
			return enc.Encode(errorRecord{Index: res.Index, SeqName: res.Name, Error: res.Err.Error()})
		}
		analyzed++
		return writeResult(enc, res.Index, res.Payload)
	}

	sink := emit
	if flags.inOrder {
		ow := worker.NewOrderedWriter(emit)
		sink = ow.Push
	}

	err = worker.Run(context.Background(), next, process, sink, worker.Params{Workers: flags.jobs})
	if err != nil {
		return err
	}

	logger.Info("run complete", zap.Int("analyzed", analyzed), zap.Int("failed", failed))
	return nil
}

func loadBundle(flags runFlags) (*refbundle.Bundle, error) {
	open := func(path string) (io.Reader, io.Closer, error) { return fasta.Open(path) }

	refR, refC, err := open(flags.inputRef)
	if err != nil {
		return nil, err
	}
	defer refC.Close()
	gffR, gffC, err := open(flags.inputGeneMap)
	if err != nil {
		return nil, err
	}
	defer gffC.Close()
	treeR, treeC, err := open(flags.inputTree)
	if err != nil {
		return nil, err
	}
	defer treeC.Close()
	cfgR, cfgC, err := open(flags.inputPathogen)
	if err != nil {
		return nil, err
	}
	defer cfgC.Close()

	return refbundle.Build(refbundle.Sources{
		RefFasta:      refR,
		GeneMapGff:    gffR,
		ReferenceTree: treeR,
		PathogenCfg:   cfgR,
		Circular:      flags.circular,
	})
}

// analyzeOne runs the pipeline for one record, going through the analyzer
// cache when one is configured. Cached entries are stored as the serialized
// output record, so a hit skips both analysis and re-serialization.
func analyzeOne(pipe *pipeline.Pipeline, cache *refbundle.AnalyzerCache, rec worker.Record) (any, error) {
	if cache == nil {
		res, err := pipe.Analyze(rec.Name, rec.Seq)
		if err != nil {
			return nil, err
		}
		return toOutput(rec.Index, res), nil
	}

	resultJSON, _, err := cache.GetOrCompute(rec.Name, rec.Seq, func() (string, error) {
		res, err := pipe.Analyze(rec.Name, rec.Seq)
		if err != nil {
			return "", err
		}
		buf, err := json.Marshal(toOutput(rec.Index, res))
		if err != nil {
			return "", err
		}
		return string(buf), nil
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resultJSON), nil
}

func writeResult(enc *json.Encoder, index int, payload any) error {
	switch v := payload.(type) {
	case json.RawMessage:
		// Cache hits were serialized under the index of the run that first
		// computed them; rewrite it for this run.
		var rec outputRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		rec.Index = index
		return enc.Encode(rec)
	case outputRecord:
		return enc.Encode(v)
	default:
		return fmt.Errorf("unexpected payload type %T", payload)
	}
}

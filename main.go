package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/sandeepkandula/awsplus/config"
	"github.com/sandeepkandula/awsplus/sync"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var yellow = color.New(color.FgHiYellow).SprintFunc()

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *slog.Logger
	awsCfg *aws.Config
}

func newApp() *app {
	return &app{v: viper.New()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "awsplus",
		Short:        "Content-hash S3 sync and AWS helpers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.SortFlags = false
	pf.StringP("config", "c", "", "config file (default ~/.awsplus/config.yaml)")
	pf.String("region", "", "AWS region")
	pf.String("profile", "", "shared config profile")
	pf.String("endpoint", "", "S3-compatible endpoint URL")
	pf.Bool("path-style", false, "use path-style S3 addressing")
	pf.Bool("dry-run", true, "compare and log, but write nothing")
	pf.BoolP("verbose", "v", true, "log every planned write at info level")
	pf.BoolP("parallel", "p", false, "run transfers on a worker pool")
	pf.IntP("workers", "w", 0, "worker pool size (0 = number of CPUs)")
	pf.String("kms-key-id", "", "KMS key for aws:kms server-side encryption")
	pf.String("storage-class", "", "storage class for written objects")
	pf.String("log-level", "", "debug, info, warn or error")

	for key, flag := range map[string]string{
		"aws.region":         "region",
		"aws.profile":        "profile",
		"aws.endpoint":       "endpoint",
		"aws.path_style":     "path-style",
		"sync.dry_run":       "dry-run",
		"sync.verbose":       "verbose",
		"sync.parallel":      "parallel",
		"sync.workers":       "workers",
		"sync.kms_key_id":    "kms-key-id",
		"sync.storage_class": "storage-class",
		"log.level":          "log-level",
	} {
		a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newSyncCmd(a),
		newLsCmd(a),
		newHeadCmd(a),
		newCpCmd(a),
		newMvCmd(a),
		newRmCmd(a),
		newDynamoCmd(a),
		newBatchCmd(a),
		newSfnCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	level, _ := cfg.Log.SlogLevel()

	a.cfg = cfg
	a.log = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(a.log)
	return nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.awsCfg == nil {
		cfg, err := config.LoadAWS(ctx, a.cfg.AWS)
		if err != nil {
			return aws.Config{}, err
		}
		a.awsCfg = &cfg
	}
	return *a.awsCfg, nil
}

func (a *app) engine(ctx context.Context) (*sync.Engine, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if a.cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.cfg.AWS.Endpoint)
		}
		o.UsePathStyle = a.cfg.AWS.PathStyle
	})

	sc := a.cfg.Sync
	opts := []sync.Option{
		sync.WithDryRun(sc.DryRun),
		sync.WithVerbose(sc.Verbose),
		sync.WithLogger(a.log),
		sync.WithTransferOptions(sync.TransferOptions{
			KMSKeyID:     sc.KMSKeyID,
			StorageClass: types.StorageClass(sc.StorageClass),
		}),
	}
	if sc.Parallel {
		opts = append(opts, sync.WithParallel(sc.Workers))
	}
	return sync.New(sync.NewS3Store(client), opts...), nil
}

func (a *app) dynamoAPI(ctx context.Context) (*dynamodb.Client, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

func (a *app) batchAPI(ctx context.Context) (*batch.Client, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return batch.NewFromConfig(awsCfg), nil
}

func (a *app) sfnAPI(ctx context.Context) (*sfn.Client, *sts.Client, error) {
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sfn.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), nil
}

// dryRunNotice reminds the user that nothing was written.
func (a *app) dryRunNotice(cmd *cobra.Command, n int) {
	if a.cfg.Sync.DryRun {
		fmt.Fprintln(cmd.ErrOrStderr(), yellow(fmt.Sprintf("dry run: %d write(s) skipped, pass --dry-run=false to apply", n)))
	}
}

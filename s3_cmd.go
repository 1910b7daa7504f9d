package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sandeepkandula/awsplus/sync"
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync SOURCE TARGET",
		Short: "Copy whatever differs from SOURCE to TARGET, compared by content hash",
		Long: `Copy every object or file under SOURCE to the same relative path under
TARGET, skipping items whose stored content hash already matches.
One side must be an s3:// uri; the other may be s3:// or a local directory.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := sync.Classify(args[0], args[1]); err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			written, err := eng.Sync(cmd.Context(), args[0], args[1])
			for _, w := range written {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			if err != nil {
				return err
			}
			a.dryRunNotice(cmd, len(written))
			return nil
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	var (
		filter   string
		long     bool
		versions bool
	)
	cmd := &cobra.Command{
		Use:   "ls s3://BUCKET[/PREFIX]",
		Short: "List keys under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, prefix, err := sync.ParseURI(args[0])
			if err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if versions {
				ids, err := eng.ListVersions(cmd.Context(), bucket, prefix)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			keys, err := eng.List(cmd.Context(), bucket, prefix, filter)
			if err != nil {
				return err
			}
			if !long {
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, k := range keys {
				meta, err := eng.Head(cmd.Context(), sync.Remote(bucket, k))
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", humanize.IBytes(uint64(meta.Size)), humanize.Time(meta.ModTime), k)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only keys containing this substring")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show size and age")
	cmd.Flags().BoolVar(&versions, "versions", false, "list the version ids of the key instead")
	return cmd
}

// objectInfo is the head output.
type objectInfo struct {
	URI         string `yaml:"uri"`
	Fingerprint string `yaml:"fingerprint,omitempty"`
	Human       string `yaml:"human_size"`

	sync.ObjectMeta `yaml:",inline"`
}

func newHeadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "head s3://BUCKET/KEY",
		Short: "Show an object's size, age, metadata and content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := remoteArg(args[0])
			if err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			meta, err := eng.Head(cmd.Context(), loc)
			if err != nil {
				return err
			}
			info := objectInfo{
				URI:        loc.String(),
				Human:      humanize.IBytes(uint64(meta.Size)),
				ObjectMeta: *meta,
			}
			info.Fingerprint = meta.Metadata[sync.FingerprintMetadataKey]
			return printYAML(cmd.OutOrStdout(), info)
		},
	}
}

func newCpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cp SOURCE TARGET",
		Short: "Upload, download or copy one object, stamping its content hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := sync.Classify(args[0], args[1])
			if err != nil {
				return err
			}
			src, err := sync.ParseLocation(args[0])
			if err != nil {
				return err
			}
			dst, err := sync.ParseLocation(args[1])
			if err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}

			var written string
			switch dir {
			case sync.LocalToRemote:
				written, err = eng.Upload(cmd.Context(), src.Path, dst)
			case sync.RemoteToLocal:
				written, err = eng.Download(cmd.Context(), src, dst.Path)
			default:
				written, err = eng.Copy(cmd.Context(), src, dst)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), written)
			a.dryRunNotice(cmd, 1)
			return nil
		},
	}
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv s3://BUCKET/KEY s3://BUCKET/KEY",
		Short: "Copy an object server side, then delete the source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := remoteArg(args[0])
			if err != nil {
				return err
			}
			dst, err := remoteArg(args[1])
			if err != nil {
				return err
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			written, err := eng.Move(cmd.Context(), src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), written)
			a.dryRunNotice(cmd, 2)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	var (
		recursive   bool
		allVersions bool
		versionID   string
	)
	cmd := &cobra.Command{
		Use:   "rm s3://BUCKET/KEY",
		Short: "Delete an object, one of its versions, all of them, or a whole prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := remoteArg(args[0])
			if err != nil {
				return err
			}
			if recursive && (allVersions || versionID != "") {
				return fmt.Errorf("%w: --recursive cannot be combined with version flags", sync.ErrInvalidArgument)
			}
			if allVersions && versionID != "" {
				return fmt.Errorf("%w: --all-versions and --version-id are exclusive", sync.ErrInvalidArgument)
			}
			eng, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}

			var deleted []string
			switch {
			case recursive:
				deleted, err = eng.DeletePrefix(cmd.Context(), loc.Bucket, loc.Key)
			case allVersions:
				deleted, err = eng.DeleteAllVersions(cmd.Context(), loc.Bucket, loc.Key)
			default:
				var d string
				if d, err = eng.Delete(cmd.Context(), loc, versionID); err == nil {
					deleted = []string{d}
				}
			}
			for _, d := range deleted {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			if err != nil {
				return err
			}
			a.dryRunNotice(cmd, len(deleted))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete every key under the prefix")
	cmd.Flags().BoolVar(&allVersions, "all-versions", false, "delete every version of the key")
	cmd.Flags().StringVar(&versionID, "version-id", "", "delete only this version")
	return cmd
}

func remoteArg(s string) (sync.Location, error) {
	loc, err := sync.ParseLocation(s)
	if err != nil {
		return sync.Location{}, err
	}
	if !loc.IsRemote() {
		return sync.Location{}, fmt.Errorf("%w: %q is not an s3:// uri", sync.ErrInvalidArgument, s)
	}
	return loc, nil
}

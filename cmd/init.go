package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/metasyntax/rules"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initRuleFile(root.cfgFile, force); err != nil {
				root.logger.Error("Error initializing rule file", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule file created: %s\n", root.cfgFile)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing rule file")
	return cmd
}

func initRuleFile(path string, force bool) error {
	if path == "" {
		path = rules.DefaultPath
	}

	d, err := rules.Starter().Marshal()
	if err != nil {
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}

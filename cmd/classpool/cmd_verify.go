package main

import (
	"fmt"

	"github.com/dhamidi/classpool/classfile"
	"github.com/dhamidi/classpool/loaded"
	"github.com/spf13/cobra"
)

func newVerifyCmd(cfg *Config) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "verify <file.class>...",
		Short: "Load and initialize class files, reporting structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strict") {
				strict = cfg.Strict
			}

			failed := 0
			for _, path := range args {
				if err := verifyFile(path, strict); err != nil {
					log.Errorf("%s: %s", path, err)
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d class files failed verification", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "validate every constant pool reference, not only the ones loading follows")

	return cmd
}

func verifyFile(path string, strict bool) error {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return err
	}
	log.Debugf("%s: parsed, constant_pool_count %d, %d fields", path, cf.ConstantPool.Count(), len(cf.Fields))

	var opts []loaded.LoadOption
	if strict {
		opts = append(opts, loaded.WithStrictValidation())
	}
	class, err := loaded.Load(cf, opts...)
	if err != nil {
		return err
	}
	if err := class.Initialize(); err != nil {
		return err
	}
	log.Infof("%s: %s loaded with %d static fields", path, class, len(class.Fields.StaticEntries()))
	return nil
}

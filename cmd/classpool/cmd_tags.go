package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dhamidi/classpool/classfile"
	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the constant pool tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BYTE\tTAG\tLOADABLE\tSLOTS")
			for _, tag := range classfile.Tags() {
				fmt.Fprintf(w, "%d\t%s\t%v\t%d\n", tag.Byte(), tag, tag.Loadable(), tag.Width())
			}
			return w.Flush()
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vesper/internal/codegen"
	"vesper/internal/decl"
	"vesper/internal/diagfmt"
	"vesper/internal/mangle"
	"vesper/internal/source"
	"vesper/internal/types"
)

var mangleCmd = &cobra.Command{
	Use:   "mangle [flags] <type>",
	Short: "Print the mangled name of a textual type",
	Long:  `Print the mangled name of a type such as 'Option<[I32; 4]>' or 'fn(I32) -> Bool'`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMangle,
}

var unmangleCmd = &cobra.Command{
	Use:   "unmangle [flags] <name>",
	Short: "Decode a mangled type name",
	Long: `Decode a mangled type name. Generic arities come from --unit when given;
otherwise unknown names take one argument per remaining token.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnmangle,
}

func init() {
	mangleCmd.Flags().String("method", "", "print the symbol of this impl method on the type instead")
	mangleCmd.Flags().String("unit-prefix", "", "unit prefix for --method symbols")
	unmangleCmd.Flags().String("unit", "", "translation unit providing generic arities")
	unmangleCmd.Flags().Bool("strict", false, "fail when the name cannot be decoded")
}

func runMangle(cmd *cobra.Command, args []string) error {
	t, err := types.Parse(args[0])
	if err != nil {
		return err
	}
	method, _ := cmd.Flags().GetString("method")
	if method == "" {
		fmt.Fprintln(cmd.OutOrStdout(), mangle.Mangle(t))
		return nil
	}
	if t.Kind != types.KindNamed && t.Kind != types.KindClass {
		return fmt.Errorf("methods need a named type, got %s", t)
	}
	unit, _ := cmd.Flags().GetString("unit-prefix")
	fmt.Fprintln(cmd.OutOrStdout(), mangle.Method(unit, "", t, method).String())
	return nil
}

func runUnmangle(cmd *cobra.Command, args []string) error {
	s, cleanup, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	unitPath, _ := cmd.Flags().GetString("unit")
	strict, _ := cmd.Flags().GetBool("strict")
	var u *decl.Unit
	if unitPath != "" {
		if u, _, err = decl.ReadFile(unitPath); err != nil {
			return err
		}
	}
	session := codegen.NewSession(u, s.codegenOptions())
	t := session.Unmangle(args[0], source.Span{})
	fmt.Fprintln(cmd.OutOrStdout(), t)

	bag := session.Bag()
	if bag.Len() > 0 && !s.quiet {
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{Color: s.color})
	}
	if strict && bag.Len() > 0 {
		return fmt.Errorf("cannot decode %q", args[0])
	}
	return nil
}

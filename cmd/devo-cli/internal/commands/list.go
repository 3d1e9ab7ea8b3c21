package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paretolabs/devo/pkg/optimizers"
	"github.com/paretolabs/devo/pkg/problems"
)

func NewProblemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "problems",
		Short: "List the built-in benchmark problems",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range problems.Names() {
				fmt.Println(name)
			}
		},
	}
}

func NewVariantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the mutation variants and adaptation schemes",
		Long: `Display the 18 mutation/crossover strategies selectable with --variant and
the two F/CR adaptation schemes selectable with --adapt.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mutation variants:")
			for v := 1; v <= 18; v++ {
				fmt.Printf("  %2d  %s\n", v, optimizers.VariantName(v))
			}
			fmt.Println("adaptation schemes:")
			fmt.Println("   1  jDE parameter control (Brest et al.)")
			fmt.Println("   2  iDE self-adaptation (Elsayed et al.)")
		},
	}
}

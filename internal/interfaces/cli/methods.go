package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/domain/lcia"
	domaintables "github.com/turtacn/regioinvent/internal/domain/tables"
)

// MethodInfo is one LCIA method and the packages it needs for a version.
type MethodInfo struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

type methodList []MethodInfo

func (l methodList) TableHeaders() []string { return []string{"METHOD", "PACKAGES"} }

func (l methodList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, m := range l {
		rows[i] = []string{m.Name, strings.Join(m.Packages, ", ")}
	}
	return rows
}

func (l methodList) String() string {
	names := make([]string, len(l))
	for i, m := range l {
		names[i] = m.Name
	}
	return strings.Join(names, "\n")
}

func newMethodsCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:         "methods",
		Short:       "List the regionalized LCIA methods",
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := domaintables.NormalizeVersion(version)
			if err != nil {
				return err
			}
			list, err := listMethods(v)
			if err != nil {
				return err
			}
			return PrintResult(cmd, list)
		},
	}
	cmd.Flags().StringVar(&version, "db-version", "3.10", "database version the packages are built for")
	return cmd
}

// listMethods returns every accepted method name with its packages, "all"
// last.
func listMethods(version string) (methodList, error) {
	out := make(methodList, 0, len(lcia.Methods))
	for _, m := range lcia.Methods {
		pkgs, err := m.Packages(version)
		if err != nil {
			return nil, err
		}
		out = append(out, MethodInfo{Name: string(m), Packages: pkgs})
	}
	return out, nil
}

//Personal.AI order the ending

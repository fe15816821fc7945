package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platemap/internal/adapters/export"
	"platemap/internal/core"
	"platemap/pkg/domain"
)

type viewFlags struct {
	fromStore bool
	plate     int
	format    string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.fromStore, "from-store", false, "treat the argument as a blob key instead of a local path")
	cmd.Flags().IntVar(&f.plate, "plate", 0, "only render this plate (1-based); 0 renders all")
	cmd.Flags().StringVarP(&f.format, "format", "f", "csv", "output format: csv, json, yaml")
}

// selected returns the plates chosen by --plate with their 1-based numbers.
func (f *viewFlags) selected(res core.ImportResult) (map[int]*domain.Plate, []int, error) {
	out := make(map[int]*domain.Plate)
	if f.plate != 0 {
		if f.plate < 0 || f.plate > len(res.Plates) {
			return nil, nil, fmt.Errorf("plate %d out of range, document has %d plates", f.plate, len(res.Plates))
		}
		out[f.plate] = res.Plates[f.plate-1]
		return out, []int{f.plate}, nil
	}
	order := make([]int, len(res.Plates))
	for i, p := range res.Plates {
		out[i+1] = p
		order[i] = i + 1
	}
	return out, order, nil
}

func newImportCommand(a *app) *cobra.Command {
	var fromStore bool
	cmd := &cobra.Command{
		Use:   "import <document>",
		Short: "Import a document and summarise the resulting plates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.load(cmd.Context(), args[0], fromStore)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: %d wells, %d plates of %d\n", args[0], len(res.Wells), len(res.Plates), a.service.Capacity())
			for i, p := range res.Plates {
				filled := 0
				for _, w := range p.Wells() {
					if v, _ := w.GetField(domain.FieldSampleName); v != nil {
						filled++
					}
				}
				fmt.Fprintf(a.stdout, "  plate %d: %d/%d wells with samples\n", i+1, filled, p.Size())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "treat the argument as a blob key instead of a local path")
	return cmd
}

func newGridCommand(a *app) *cobra.Command {
	var (
		vf   viewFlags
		attr string
	)
	cmd := &cobra.Command{
		Use:   "grid <document>",
		Short: "Print one well attribute arranged as the plate grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(vf.format)
			if err != nil {
				return err
			}
			res, err := a.load(cmd.Context(), args[0], vf.fromStore)
			if err != nil {
				return err
			}
			plates, order, err := vf.selected(res)
			if err != nil {
				return err
			}
			for _, n := range order {
				g, err := plates[n].GridView(attr)
				if err != nil {
					return err
				}
				data, err := export.RenderGrid(g, f)
				if err != nil {
					return err
				}
				a.section(n, len(order), data)
			}
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVar(&attr, "attr", domain.FieldSampleName, "well attribute to render")
	return cmd
}

func newTableCommand(a *app) *cobra.Command {
	var (
		vf   viewFlags
		attr string
	)
	cmd := &cobra.Command{
		Use:   "table <document>",
		Short: "Print one well attribute as an index/value table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(vf.format)
			if err != nil {
				return err
			}
			res, err := a.load(cmd.Context(), args[0], vf.fromStore)
			if err != nil {
				return err
			}
			plates, order, err := vf.selected(res)
			if err != nil {
				return err
			}
			for _, n := range order {
				t, err := plates[n].AttributeTable(attr)
				if err != nil {
					return err
				}
				data, err := export.RenderAttributeTable(attr, t, f)
				if err != nil {
					return err
				}
				a.section(n, len(order), data)
			}
			return nil
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVar(&attr, "attr", domain.FieldSampleName, "well attribute to render")
	return cmd
}

func newRecordsCommand(a *app) *cobra.Command {
	var vf viewFlags
	cmd := &cobra.Command{
		Use:   "records <document>",
		Short: "Print every field of every well keyed by well index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(vf.format)
			if err != nil {
				return err
			}
			res, err := a.load(cmd.Context(), args[0], vf.fromStore)
			if err != nil {
				return err
			}
			plates, order, err := vf.selected(res)
			if err != nil {
				return err
			}
			for _, n := range order {
				t, err := plates[n].FullRecordTable()
				if err != nil {
					return err
				}
				data, err := export.RenderRecordTable(t, f)
				if err != nil {
					return err
				}
				a.section(n, len(order), data)
			}
			return nil
		},
	}
	vf.register(cmd)
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var (
		fromStore bool
		req       export.Request
		formats   []string
		prefix    string
	)
	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render views of every plate into the blob store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("formats") {
				formats = a.cfg.Export.Formats
			}
			req.Formats = req.Formats[:0]
			for _, s := range formats {
				f, err := export.ParseFormat(strings.ToLower(s))
				if err != nil {
					return err
				}
				req.Formats = append(req.Formats, f)
			}
			if !cmd.Flags().Changed("prefix") {
				prefix = a.cfg.Export.Prefix
			}
			if !cmd.Flags().Changed("overwrite") {
				req.Overwrite = a.cfg.Export.Overwrite
			}
			if len(req.GridAttributes) == 0 && len(req.TableAttributes) == 0 && !req.Records && !req.Document {
				req.Records = true
			}

			res, err := a.load(cmd.Context(), args[0], fromStore)
			if err != nil {
				return err
			}
			exp, err := export.NewExporter(a.store, a.log)
			if err != nil {
				return err
			}
			arts, err := exp.ExportPlates(cmd.Context(), prefix, res.Plates, req)
			if err != nil {
				return err
			}
			for _, art := range arts {
				fmt.Fprintln(a.stdout, art.Info.Key)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "treat the argument as a blob key instead of a local path")
	cmd.Flags().StringSliceVar(&req.GridAttributes, "grid", nil, "well attributes to export as grids")
	cmd.Flags().StringSliceVar(&req.TableAttributes, "table", nil, "well attributes to export as index/value tables")
	cmd.Flags().BoolVar(&req.Records, "records", false, "export the full record table")
	cmd.Flags().BoolVar(&req.Document, "document", false, "export each plate as a re-importable document")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "formats to write: csv, json, yaml")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix for exported artifacts")
	cmd.Flags().BoolVar(&req.Overwrite, "overwrite", false, "replace existing artifacts")
	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the well and plate fields of every category",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reg := a.service.Registry()
			for _, kind := range []domain.EntityKind{domain.EntityWell, domain.EntityPlate} {
				cats := append([]domain.Category{domain.CategoryNone}, reg.Categories(kind)...)
				for _, c := range cats {
					s, err := reg.SchemaFor(kind, c)
					if err != nil {
						return err
					}
					name := string(c)
					if name == "" {
						name = "(none)"
					}
					fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", s.Kind(), name, strings.Join(s.Fields(), ","))
				}
			}
			return nil
		},
	}
}

// section writes rendered output, prefixing a plate header when more than
// one plate is printed.
func (a *app) section(n, total int, data []byte) {
	if total > 1 {
		fmt.Fprintf(a.stdout, "# plate %d\n", n)
	}
	_, _ = a.stdout.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(a.stdout)
	}
}

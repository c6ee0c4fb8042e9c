package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/barcut/internal/importer"
	"github.com/piwi3910/barcut/internal/model"
	"github.com/piwi3910/barcut/internal/project"
)

func (c *cli) importCmd() *cobra.Command {
	var (
		save      string
		stockName string
		quantity  int
	)
	cmd := &cobra.Command{
		Use:   "import <parts.csv|parts.xlsx>",
		Short: "Import a parts list and optionally save it as a request",
		Long: `Reads a CSV or Excel parts list with name, length and quantity columns.
With --save the parts are written as a request file cut from one stock preset
of the inventory (--stock, default the first preset).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := importer.ImportFile(args[0])
			printImport(c.out, res)
			if !res.OK() {
				return fmt.Errorf("%d rows could not be imported", len(res.Errors))
			}
			if save == "" {
				return nil
			}

			inv, err := c.inventory()
			if err != nil {
				return err
			}
			preset, err := pickPreset(inv, stockName)
			if err != nil {
				return err
			}
			appCfg, err := c.appConfig()
			if err != nil {
				return err
			}
			settings := appCfg.Settings()
			req := model.Request{
				ProjectDescription: strings.TrimSuffix(filepath.Base(save), filepath.Ext(save)),
				Stock:              map[string]model.StockItem{preset.Name: preset.ToStockItem(quantity)},
				Parts:              res.Parts,
				Settings:           settings,
			}
			if err := project.SaveRequest(save, req); err != nil {
				return err
			}
			good.Fprintf(c.out, "saved request %s (stock %s)\n", save, preset.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "write a request file (.json or .yaml)")
	cmd.Flags().StringVar(&stockName, "stock", "", "stock preset name from the inventory")
	cmd.Flags().IntVar(&quantity, "qty", 0, "bars available of the stock preset (0 means unlimited)")
	return cmd
}

func pickPreset(inv model.Inventory, name string) (model.StockPreset, error) {
	if name == "" {
		if len(inv.Stocks) == 0 {
			return model.StockPreset{}, errors.New("the inventory has no stock presets")
		}
		return inv.Stocks[0], nil
	}
	preset := inv.FindStockByName(name)
	if preset == nil {
		return model.StockPreset{}, fmt.Errorf("stock preset %q not found, have: %s", name, strings.Join(inv.StockNames(), ", "))
	}
	return *preset, nil
}

func (c *cli) inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Show or extend the item catalog and stock presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			printInventory(c.out, inv)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <inventory.json>",
		Short: "Merge catalog items and stock presets from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			merged, err := project.ImportInventory(args[0], inv)
			if err != nil {
				return err
			}
			if err := project.SaveInventory(c.inventoryPath(), merged); err != nil {
				return err
			}
			good.Fprintf(c.out, "inventory now has %d items and %d stock presets\n", len(merged.Items), len(merged.Stocks))
			return nil
		},
	})
	return cmd
}

func (c *cli) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import the app config and inventory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <backup.json>",
		Short: "Write the app config and inventory to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := c.appConfig()
			if err != nil {
				return err
			}
			inv, err := c.inventory()
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], appCfg, inv); err != nil {
				return err
			}
			good.Fprintf(c.out, "exported backup to %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <backup.json>",
		Short: "Replace the app config and inventory with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(c.appConfigPath(), backup.Config); err != nil {
				return err
			}
			if err := project.SaveInventory(c.inventoryPath(), backup.Inventory); err != nil {
				return err
			}
			good.Fprintf(c.out, "restored backup %s from %s\n", backup.Version, backup.CreatedAt)
			return nil
		},
	})
	return cmd
}

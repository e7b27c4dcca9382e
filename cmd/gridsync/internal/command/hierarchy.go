package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/client"
	"github.com/zero-day-ai/gridsync/wire"
)

type HierarchyOptions struct {
	Kinds     []string
	Equipment bool
	containerFlags
}

// hierarchyKinds maps --kinds values to request toggles.
var hierarchyKinds = map[string]func(*wire.HierarchyOptions){
	"geographical-regions":     func(o *wire.HierarchyOptions) { o.GeographicalRegions = true },
	"sub-geographical-regions": func(o *wire.HierarchyOptions) { o.SubGeographicalRegions = true },
	"substations":              func(o *wire.HierarchyOptions) { o.Substations = true },
	"feeders":                  func(o *wire.HierarchyOptions) { o.Feeders = true },
	"lv-feeders":               func(o *wire.HierarchyOptions) { o.LvFeeders = true },
	"circuits":                 func(o *wire.HierarchyOptions) { o.Circuits = true },
	"loops":                    func(o *wire.HierarchyOptions) { o.Loops = true },
}

func NewHierarchyCommand(cli *CLI) *cobra.Command {
	var opts HierarchyOptions

	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Fetch the network hierarchy",
		Long: "Fetch regions, substations, feeders, circuits and loops and link them.\n\n" +
			"With --equipment the equipment of every container in the hierarchy is\n" +
			"fetched as well.\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunHierarchy(cmd.Context(), cli, opts)
		},
	}

	names := make([]string, 0, len(hierarchyKinds))
	for name := range hierarchyKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	cmd.Flags().StringSliceVar(&opts.Kinds, "kinds", nil, "Kinds to fetch, default all. Any of: "+strings.Join(names, ", "))
	cmd.Flags().BoolVar(&opts.Equipment, "equipment", false, "Also fetch the equipment of every container")
	opts.bind(cmd)
	return cmd
}

func (o HierarchyOptions) request() (wire.HierarchyOptions, error) {
	if len(o.Kinds) == 0 {
		return wire.FullHierarchy(), nil
	}
	var req wire.HierarchyOptions
	for _, k := range o.Kinds {
		set, ok := hierarchyKinds[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return req, fmt.Errorf("unknown hierarchy kind %q", k)
		}
		set(&req)
	}
	return req, nil
}

func RunHierarchy(ctx context.Context, cli *CLI, opts HierarchyOptions) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	c, _, err := cli.Client(ctx)
	if err != nil {
		return err
	}
	defer gridsync.CloseWithLog(c, cli.Logger, "catalogue client")

	res := c.GetNetworkHierarchy(ctx, req)
	h, err := res.Get()
	if err != nil {
		return err
	}

	if !opts.Equipment {
		return cli.printObjects(newObjectList(hierarchyObjects(h), nil))
	}

	eq := c.GetEquipmentForContainers(ctx, h.ContainerIDs(), opts.options())
	out := eq.Value()
	if out == nil {
		out = client.NewMultiObjectResult()
	}
	for _, obj := range hierarchyObjects(h) {
		out.Objects[obj.MRID()] = obj
	}
	return cli.finishObjects(out, eq.Err())
}

func hierarchyObjects(h *client.NetworkHierarchy) []cim.IdentifiedObject {
	var objs []cim.IdentifiedObject
	for _, v := range h.GeographicalRegions {
		objs = append(objs, v)
	}
	for _, v := range h.SubGeographicalRegions {
		objs = append(objs, v)
	}
	for _, v := range h.Substations {
		objs = append(objs, v)
	}
	for _, v := range h.Feeders {
		objs = append(objs, v)
	}
	for _, v := range h.LvFeeders {
		objs = append(objs, v)
	}
	for _, v := range h.Circuits {
		objs = append(objs, v)
	}
	for _, v := range h.Loops {
		objs = append(objs, v)
	}
	return objs
}

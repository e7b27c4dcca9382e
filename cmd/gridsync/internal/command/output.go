package command

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/client"
	"github.com/zero-day-ai/gridsync/wire"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	OutputYAML = "yaml"
	OutputJSON = "json"
	OutputIDs  = "ids"
)

// objectList is the printed form of a set of objects.
type objectList struct {
	Objects []*wire.Object `json:"objects" yaml:"objects"`
	Failed  []string       `json:"failed,omitempty" yaml:"failed,omitempty"`
}

func newObjectList(objs []cim.IdentifiedObject, failed []string) objectList {
	list := objectList{Objects: make([]*wire.Object, 0, len(objs)), Failed: failed}
	for _, obj := range objs {
		list.Objects = append(list.Objects, wire.Encode(obj))
	}
	sort.Slice(list.Objects, func(i, j int) bool { return list.Objects[i].MRID < list.Objects[j].MRID })
	return list
}

func resultList(res *client.MultiObjectResult) objectList {
	if res == nil {
		return objectList{}
	}
	objs := make([]cim.IdentifiedObject, 0, len(res.Objects))
	for _, obj := range res.Objects {
		objs = append(objs, obj)
	}
	return newObjectList(objs, res.FailedIDs())
}

// printObjects writes list in the selected format.
func (c *CLI) printObjects(list objectList) error {
	if c.Output == OutputIDs {
		for _, obj := range list.Objects {
			if _, err := fmt.Fprintln(c.Out, obj.MRID); err != nil {
				return err
			}
		}
		return nil
	}
	return c.print(list)
}

// print writes v as YAML or JSON. The ids format falls back to YAML for
// values that are not object lists.
func (c *CLI) print(v any) error {
	return encode(c.Out, c.Output, v)
}

func encode(w io.Writer, format string, v any) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cafe-directory/internal/client"
	apihttp "cafe-directory/internal/common/http"
	"cafe-directory/internal/common/logger"
	"cafe-directory/internal/query"
)

type entity struct {
	name     string
	aliases  []string
	endpoint string
}

var entities = []entity{
	{name: "cafes", endpoint: "/api/cafes"},
	{name: "reviews", endpoint: "/api/reviews"},
	{name: "recommendations", aliases: []string{"cafe-recommendations"}, endpoint: "/api/cafe-recommendations"},
	{name: "facilities", endpoint: "/api/facilities"},
	{name: "terms", endpoint: "/api/terms"},
}

type listOptions struct {
	page    int
	limit   int
	sort    []string
	search  string
	filters []string
}

func newListCmd(e entity, global *globalOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     e.name,
		Aliases: e.aliases,
		Short:   fmt.Sprintf("List %s", e.name),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, e, global, opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 0, "Page number")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Page size (1-100)")
	cmd.Flags().StringArrayVar(&opts.sort, "sort", nil, "Sort key; repeating the same key flips to descending")
	cmd.Flags().StringVar(&opts.search, "search", "", "Free-text search")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Filter as key=v1,v2 (repeatable)")
	return cmd
}

// apply replays the flags as synchronizer mutations. Page goes last because
// every other mutation resets it.
func (o *listOptions) apply(s *client.Synchronizer) error {
	if len(o.filters) > 0 {
		values := make(map[string]interface{}, len(o.filters))
		for _, f := range o.filters {
			key, raw, ok := strings.Cut(f, "=")
			if !ok || key == "" {
				return fmt.Errorf("invalid filter %q, expected key=value[,value]", f)
			}
			values[key] = strings.Split(raw, ",")
		}
		s.SetFilters(values)
	}
	if o.search != "" {
		s.SetSearch(o.search)
	}
	if o.limit > 0 {
		s.SetLimit(o.limit)
	}
	for _, key := range o.sort {
		s.SetSort(key)
	}
	if o.page > 0 {
		s.SetPage(o.page)
	}
	return nil
}

func runList(cmd *cobra.Command, e entity, global *globalOptions, opts *listOptions) error {
	endpoint := e.endpoint
	if global.token != "" {
		endpoint = global.externalPrefix + endpoint
	}

	nav := client.NewMemoryNavigator(endpoint, nil)
	state := client.NewSynchronizer(nav)
	if err := opts.apply(state); err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if global.verbose {
		log = logger.NewStructured("debug", "console", "stderr")
	}

	api := apihttp.NewClient(global.baseURL, global.token, global.timeout)
	binding, err := client.NewBinding[json.RawMessage](api, endpoint, global.cacheSize, log)
	if err != nil {
		return err
	}

	<-binding.Load(cmd.Context(), state.Query())
	snap := binding.Snapshot()
	if snap.Err != nil {
		return describe(snap.Err)
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	return out.Encode(query.Envelope[json.RawMessage]{Data: snap.Data, Meta: snap.Meta})
}

func describe(err error) error {
	var statusErr *apihttp.StatusError
	if errors.As(err, &statusErr) && len(statusErr.Details) > 0 {
		return fmt.Errorf("%w: %s", err, statusErr.Details)
	}
	return err
}

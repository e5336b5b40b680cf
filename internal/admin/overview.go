package admin

import (
	"cmp"
	"context"
	"slices"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// unmappedType labels managed indices without a mapping type stamp.
const unmappedType = "unmapped"

// Overview renders cluster health, nodes and the managed indices ordered by
// type then name. Sections that fail are listed in Errors and the rest is
// still returned.
func (s *Service) Overview(ctx context.Context) domain.Overview {
	var ov domain.Overview

	health, err := s.cluster.Health(ctx, "")
	if err != nil {
		ov.Errors = append(ov.Errors, "cluster health: "+err.Error())
	} else {
		ov.Cluster = health
	}

	nodes, err := s.cluster.Nodes(ctx)
	if err != nil {
		ov.Errors = append(ov.Errors, "nodes: "+err.Error())
	}
	ov.Nodes = nodes

	indices, err := s.managedIndices(ctx)
	if err != nil {
		ov.Errors = append(ov.Errors, "indices: "+err.Error())
	}
	ov.Indices = indices

	if len(ov.Errors) > 0 {
		s.logger.Warn("Overview incomplete", infralogger.Strings("errors", ov.Errors))
	}
	return ov
}

func (s *Service) managedIndices(ctx context.Context) ([]domain.PhysicalIndex, error) {
	live, err := s.cluster.ListIndices(ctx)
	if err != nil {
		return nil, err
	}

	codes := s.languages.Codes()
	managed := make([]domain.PhysicalIndex, 0, len(live))
	names := make([]string, 0, len(live))
	for _, idx := range live {
		parsed, ok := s.names.Parse(idx.Name, s.cfg.Indices, codes)
		if !ok {
			continue
		}
		idx.Logical = parsed.Logical
		idx.Language = parsed.Language
		idx.Commerce = parsed.Commerce
		managed = append(managed, idx)
		names = append(names, idx.Name)
	}

	var typeErr error
	types := map[string]string{}
	if len(names) > 0 {
		types, typeErr = s.cluster.MappingTypes(ctx, names...)
	}
	for i := range managed {
		managed[i].Type = typeName(managed[i], types)
	}

	slices.SortFunc(managed, func(a, b domain.PhysicalIndex) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
	})
	return managed, typeErr
}

func typeName(idx domain.PhysicalIndex, stamped map[string]string) string {
	if t, ok := stamped[idx.Name]; ok {
		return t
	}
	return unmappedType
}

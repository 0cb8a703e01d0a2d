package data

import (
	"context"
)

// DTO maps a persistence type to its domain model M and back.
type DTO[M any] interface {
	To() M
	From(m M) any
}

// DtoWrapRepository exposes a repository of persistence DTOs in domain model terms.
// Specifications stay written against the DTO type.
type DtoWrapRepository[D DTO[M], M any, ID comparable] struct {
	dtoRepository Repository[D, ID]
}

func NewDtoWrapRepository[D DTO[M], M any, ID comparable](dtoRepository Repository[D, ID]) *DtoWrapRepository[D, M, ID] {
	return &DtoWrapRepository[D, M, ID]{
		dtoRepository: dtoRepository,
	}
}

func (d *DtoWrapRepository[D, M, ID]) GetByID(ctx context.Context, id ID) (M, error) {
	dto, err := d.dtoRepository.GetByID(ctx, id)
	if err != nil {
		var m M
		return m, err
	}
	return dto.To(), nil
}

func (d *DtoWrapRepository[D, M, ID]) ListAll(ctx context.Context) ([]M, error) {
	dtos, err := d.dtoRepository.ListAll(ctx)
	return toModels[D, M](dtos), err
}

func (d *DtoWrapRepository[D, M, ID]) List(ctx context.Context, spec *Specification[D]) ([]M, error) {
	dtos, err := d.dtoRepository.List(ctx, spec)
	return toModels[D, M](dtos), err
}

func (d *DtoWrapRepository[D, M, ID]) Add(ctx context.Context, model M) (M, error) {
	created, err := d.dtoRepository.Add(ctx, fromModel[D](model))
	if err != nil {
		return model, err
	}
	return created.To(), nil
}

func (d *DtoWrapRepository[D, M, ID]) Update(ctx context.Context, model M) (M, error) {
	updated, err := d.dtoRepository.Update(ctx, fromModel[D](model))
	if err != nil {
		return model, err
	}
	return updated.To(), nil
}

func (d *DtoWrapRepository[D, M, ID]) Delete(ctx context.Context, model M) error {
	return d.dtoRepository.Delete(ctx, fromModel[D](model))
}

func fromModel[D DTO[M], M any](model M) D {
	var dto D
	return dto.From(model).(D)
}

func toModels[D DTO[M], M any](dtos []D) []M {
	models := make([]M, 0, len(dtos))
	for _, v := range dtos {
		models = append(models, v.To())
	}
	return models
}

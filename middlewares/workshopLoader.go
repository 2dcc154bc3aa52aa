package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type workshopReader struct {
	db *gorm.DB
}

func (r *workshopReader) getWorkshops(ctx context.Context, ids []int) []*dataloader.Result[*models.Workshop] {
	var results []models.Workshop
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Workshop](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetWorkshop(ctx context.Context, id int) (*models.Workshop, error) {
	loaders := For(ctx)
	return loaders.WorkshopLoader.Load(ctx, id)()
}

func GetWorkshops(ctx context.Context, ids []int) ([]*models.Workshop, []error) {
	loaders := For(ctx)
	return loaders.WorkshopLoader.LoadMany(ctx, ids)()
}

package entity

import "anchorview/internal/domain/reconcile"

type listInput struct {
	Kind            string `path:"kind" example:"anchor_points" doc:"Тип сущности"`
	CompanyID       string `query:"companyId" doc:"Фильтр по компании"`
	ProjectID       string `query:"projectId" doc:"Фильтр по проекту"`
	ParentID        string `query:"parentId" doc:"Фильтр по родителю (локация, точка)"`
	IncludeArchived bool   `query:"includeArchived" doc:"Включать архивные записи"`
}

type findInput struct {
	Kind string `path:"kind" example:"anchor_points" doc:"Тип сущности"`
	Body reconcile.Matcher
}

// Тело записи разбирается вручную: у каждого типа своя модель
type createInput struct {
	Kind    string `path:"kind" example:"anchor_points" doc:"Тип сущности"`
	RawBody []byte `contentType:"application/json"`
}

type updateInput struct {
	Kind    string `path:"kind" example:"anchor_points" doc:"Тип сущности"`
	ID      string `path:"id" doc:"ID записи"`
	RawBody []byte `contentType:"application/json"`
}

type deleteInput struct {
	Kind string `path:"kind" example:"anchor_points" doc:"Тип сущности"`
	ID   string `path:"id" doc:"ID записи"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Items []any `json:"items"`
}

type itemOutput struct {
	Body itemResponse
}

type itemResponse struct {
	Item any `json:"item"`
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package backend implements the REST api of templates and template data

A template is a named list of typed fields defined by a user. Template data records hold
values for those fields. Every record belongs to the user who created it, identified by
the subject of the bearer token.

The backend creates the following routes:

	GET /health
	GET /version
	POST /auth/signup
	POST /auth/login
	POST /auth/logout
	POST /auth/recover
	POST /templates
	GET /templates
	GET /templates/{template_id}
	PUT /templates/{template_id}
	DELETE /templates/{template_id}?cascade=true
	POST /templates/{template_id}/data
	GET /templates/{template_id}/data
	GET /templates/{template_id}/data/{data_id}
	PUT /templates/{template_id}/data/{data_id}
	DELETE /templates/{template_id}/data/{data_id}

All /templates routes require the header "Authorization: Bearer <token>".

We can create a template with a simple POST:

	curl http://localhost:3000/templates -H "Authorization: Bearer $TOKEN" \
	  -d'{"name":"Gastos","fields":[{"name":"Fecha","type":"date"},{"name":"Cantidad","type":"float","display_unit":"EUR"}]}'
	{
	  "message": "Template creado exitosamente",
	  "template_id": "f879572d-ac69-4020-b7f8-a9b3e628fd9d"
	}

Field types are string, int, float, boolean and date. Data values are checked against
the declared types of the template:

	curl http://localhost:3000/templates/f879572d-ac69-4020-b7f8-a9b3e628fd9d/data -H "Authorization: Bearer $TOKEN" \
	  -d'{"values":{"Fecha":"2024-01-15","Cantidad":"diez"}}'
	{
	  "detail": {
	    "message": "Error de validación",
	    "errors": ["El valor para el campo 'Cantidad' no es del tipo esperado: float"]
	  }
	}

Templates and data of other users are reported as not found.
*/
package backend

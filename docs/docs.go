// Package docs registra la definición OpenAPI servida en /swagger.
// Regenerar con: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/otp/request": {
            "post": {
                "tags": ["auth"],
                "summary": "Pedir un código de login por SMS",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid input"}, "429": {"description": "too many otp requests"}}
            }
        },
        "/auth/otp/verify": {
            "post": {
                "tags": ["auth"],
                "summary": "Canjear el código de login por un token",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid or expired otp"}}
            }
        },
        "/users/me": {
            "get": {
                "tags": ["users"],
                "summary": "Perfil del usuario autenticado",
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            },
            "put": {
                "tags": ["users"],
                "summary": "Crear o actualizar el perfil (el teléfono se verifica aparte)",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid input or unverified phone"}}
            }
        },
        "/users/me/phone": {
            "post": {
                "tags": ["users"],
                "summary": "Pedir código para verificar un teléfono nuevo",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid input"}, "409": {"description": "phone already in use"}, "429": {"description": "too many otp requests"}}
            }
        },
        "/users/me/phone/verify": {
            "post": {
                "tags": ["users"],
                "summary": "Confirmar el teléfono con el código recibido",
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid or expired otp"}, "409": {"description": "phone already in use"}}
            }
        },
        "/pets": {
            "get": {
                "tags": ["pets"],
                "summary": "Mascotas propias",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["pets"],
                "summary": "Crear mascota",
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}}
            }
        },
        "/pets/{petID}": {
            "get": {
                "tags": ["pets"],
                "summary": "Perfil de la mascota (profile:read)",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            },
            "patch": {
                "tags": ["pets"],
                "summary": "Actualizar perfil (profile:write)",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        },
        "/me/pets/shared": {
            "get": {
                "tags": ["pets"],
                "summary": "Mascotas compartidas por la familia",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pets/{petID}/records": {
            "get": {
                "tags": ["records"],
                "summary": "Historial clínico (clinical:read)",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"type": "string", "name": "types", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "boolean", "name": "include_voided", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            },
            "post": {
                "tags": ["records"],
                "summary": "Cargar registro clínico (clinical:write)",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}, "403": {"description": "forbidden"}}
            }
        },
        "/pets/{petID}/records/{recordID}": {
            "get": {
                "tags": ["records"],
                "summary": "Registro clínico",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"type": "string", "name": "recordID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        },
        "/pets/{petID}/records/{recordID}/void": {
            "post": {
                "tags": ["records"],
                "summary": "Anular registro clínico",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"type": "string", "name": "recordID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        },
        "/families": {
            "post": {
                "tags": ["families"],
                "summary": "Crear familia",
                "responses": {"201": {"description": "Created"}, "409": {"description": "family already exists"}}
            }
        },
        "/families/me": {
            "get": {
                "tags": ["families"],
                "summary": "Familia del usuario",
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            }
        },
        "/families/{familyID}/invitations": {
            "post": {
                "tags": ["families"],
                "summary": "Invitar por teléfono",
                "parameters": [{"type": "string", "name": "familyID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "forbidden"}, "409": {"description": "already member"}}
            }
        },
        "/families/{familyID}/join": {
            "post": {
                "tags": ["families"],
                "summary": "Unirse con el código recibido",
                "parameters": [{"type": "string", "name": "familyID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "invalid or expired otp"}}
            }
        },
        "/families/{familyID}/members": {
            "get": {
                "tags": ["families"],
                "summary": "Miembros de la familia",
                "parameters": [{"type": "string", "name": "familyID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/families/{familyID}/members/{memberID}": {
            "patch": {
                "tags": ["families"],
                "summary": "Cambiar nivel de acceso",
                "parameters": [
                    {"type": "string", "name": "familyID", "in": "path", "required": true},
                    {"type": "string", "name": "memberID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            },
            "delete": {
                "tags": ["families"],
                "summary": "Quitar miembro",
                "parameters": [
                    {"type": "string", "name": "familyID", "in": "path", "required": true},
                    {"type": "string", "name": "memberID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/clinics": {
            "post": {
                "tags": ["clinics"],
                "summary": "Crear clínica (el creador queda como admin)",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/clinics/{clinicID}": {
            "get": {
                "tags": ["clinics"],
                "summary": "Clínica",
                "parameters": [{"type": "string", "name": "clinicID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            }
        },
        "/clinics/{clinicID}/doctors": {
            "get": {
                "tags": ["clinics"],
                "summary": "Doctores de la clínica",
                "parameters": [{"type": "string", "name": "clinicID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            },
            "post": {
                "tags": ["clinics"],
                "summary": "Agregar doctor",
                "parameters": [{"type": "string", "name": "clinicID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "forbidden"}, "409": {"description": "doctor already exists"}}
            }
        },
        "/clinics/{clinicID}/access": {
            "get": {
                "tags": ["clinic-access"],
                "summary": "Accesos recibidos por la clínica",
                "parameters": [{"type": "string", "name": "clinicID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/pets/{petID}/clinic-access": {
            "get": {
                "tags": ["clinic-access"],
                "summary": "Accesos otorgados sobre la mascota",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/clinic-access/request": {
            "post": {
                "tags": ["clinic-access"],
                "summary": "Solicitar acceso clínico a una mascota",
                "responses": {"200": {"description": "OK"}, "403": {"description": "not authorized"}, "429": {"description": "too many otp requests"}}
            }
        },
        "/clinic-access/grant": {
            "post": {
                "tags": ["clinic-access"],
                "summary": "Otorgar acceso con el código OTP",
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid or expired otp"}, "403": {"description": "not authorized"}}
            }
        },
        "/clinic-access/revoke": {
            "post": {
                "tags": ["clinic-access"],
                "summary": "Revocar acceso",
                "responses": {"200": {"description": "OK"}, "403": {"description": "not authorized"}, "404": {"description": "not found"}}
            }
        },
        "/clinic-access/{grantID}": {
            "get": {
                "tags": ["clinic-access"],
                "summary": "Detalle de un acceso",
                "parameters": [{"type": "string", "name": "grantID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Health Records API",
	Description:      "Historial clínico de mascotas con acceso temporal de clínicas por OTP.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

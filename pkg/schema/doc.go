// Package schema validates structured values produced by language models.
//
// A Schema maps keys to Types. Validate checks that required keys are present with
// the right type; ValidateExact additionally rejects keys the schema does not name,
// which is how aggregation nodes enforce their output contract.
//
//	contract := schema.Schema{
//	    "generated_stg_dbt_model":   schema.NonEmptyString(),
//	    "generated_stg_schema_yaml": schema.NonEmptyString(),
//	}
//
//	obj, err := schema.DecodeObject(modelReply, contract)
//	if err != nil {
//	    // err wraps ErrMalformed or is an *AggregateError
//	}
//
// Schemas can also be declared as type strings in YAML or JSON:
//
//	contract, err := schema.ParseTypeMap(map[string]string{"summary": "string!", "tags": "[string]"})
package schema
